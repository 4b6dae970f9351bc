package whatsapp

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// zapLogger routes whatsmeow logging into zap
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newWALogger(logger *zap.Logger, module string) waLog.Logger {
	return zapLogger{sugar: logger.Named(module).Sugar()}
}

func (l zapLogger) Errorf(msg string, args ...interface{}) { l.sugar.Errorf(msg, args...) }
func (l zapLogger) Warnf(msg string, args ...interface{})  { l.sugar.Warnf(msg, args...) }
func (l zapLogger) Infof(msg string, args ...interface{})  { l.sugar.Infof(msg, args...) }
func (l zapLogger) Debugf(msg string, args ...interface{}) { l.sugar.Debugf(msg, args...) }

func (l zapLogger) Sub(module string) waLog.Logger {
	return zapLogger{sugar: l.sugar.Named(module)}
}
