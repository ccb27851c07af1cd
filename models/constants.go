package models

import "time"

const DefaultRpcWaitTime = 30 * time.Second
const DefaultEventWaitTime = 10 * time.Second

const (
	DefaultEventRateLimit  = 32
	DefaultEventQueueDepth = 1024
)
