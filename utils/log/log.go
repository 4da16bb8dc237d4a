// Package log : 프로젝트 공통 로거 (logrus 래퍼)
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure : 설정 객체에서 읽은 level/debug 값을 반영
// 알 수 없는 level 문자열이면 info로 떨어진다
func Configure(level string, debug bool) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
}

// SetOutput : 테스트 등에서 출력 대상 교체
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Writer : 외부 라이브러리(fiber logger 등) 출력을 info 레벨 로그로 흘린다
func Writer() io.Writer {
	return logger.WriterLevel(logrus.InfoLevel)
}

func Level() logrus.Level {
	return logger.GetLevel()
}

func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Info(args ...interface{})                  { logger.Info(args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(args ...interface{})                  { logger.Warn(args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Fatal(args ...interface{})                 { logger.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
