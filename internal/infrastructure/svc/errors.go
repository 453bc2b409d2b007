package svc

import "errors"

// ErrNoStoreEnabled 错误：没有启用任何事务存储
var ErrNoStoreEnabled = errors.New("no transaction store enabled")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
