package racer

import "github.com/sirupsen/logrus"

// log 车手模块的日志记录器，组件日志额外带有racer字段
var log = logrus.WithField("module", "racer")
