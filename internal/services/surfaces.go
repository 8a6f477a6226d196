package services

import "github.com/charmbracelet/log"

// LogSurfaces records surface affordances in the log. UI rendering lives in
// the client; the coordinator only needs the decisions to be observable.
type LogSurfaces struct {
	logger *log.Logger
}

func NewLogSurfaces(logger *log.Logger) *LogSurfaces {
	return &LogSurfaces{logger: logger}
}

// ShowPageAction marks a surface as hosting a recognized session.
func (s *LogSurfaces) ShowPageAction(surfaceID int, userID string) {
	s.logger.Info("page action shown", "surface", surfaceID, "user", userID)
}

// NotifyFirstPlaylist surfaces the "create your first playlist" prompt.
func (s *LogSurfaces) NotifyFirstPlaylist(userID string) {
	s.logger.Info("first playlist prompt shown", "user", userID)
}

// NotifyAccountMismatch tells a surface it is signed into a non-primary
// account.
func (s *LogSurfaces) NotifyAccountMismatch(surfaceID int, accountID string) {
	s.logger.Info("non-primary account detected", "surface", surfaceID, "account", accountID)
}
