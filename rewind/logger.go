package rewind

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "rewind")
