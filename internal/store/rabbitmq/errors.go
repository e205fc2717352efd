package rabbitmq

import "errors"

var errMissingRequestID = errors.New("rabbitmq: transcript without request_id")
