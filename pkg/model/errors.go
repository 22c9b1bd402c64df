package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidMode     = goerr.New("invalid research mode")
	ErrChatNotFound    = goerr.New("chat not found")
	ErrDocNotFound     = goerr.New("document not found")
	ErrProjectNotFound = goerr.New("project not found")
)
