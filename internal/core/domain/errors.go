package domain

import (
	"errors"
	"fmt"
)

// Pipeline failures surfaced to the user. The messages are the user-facing
// strings; the HTTP layer returns them verbatim. "Not found" from a resolver
// is a nil Place, not one of these errors — only the dispatcher turns absence
// into ErrOriginNotFound / ErrDestinationNotFound.
var (
	// ErrNotConfigured means a required API credential is unset.
	ErrNotConfigured = errors.New("服务未配置对应的地图API密钥")

	// ErrMissingOrigin means no explicit origin was stated and no device
	// location was supplied.
	ErrMissingOrigin = errors.New("未获取到您的位置信息,请明确指定起点(例如:从xx到yy)或允许浏览器获取位置权限")

	// ErrOriginNotFound means neither place search nor geocoding matched
	// the origin keyword.
	ErrOriginNotFound = errors.New("无法找到起点信息，请使用更具体的地址")

	// ErrDestinationNotFound is the destination counterpart.
	ErrDestinationNotFound = errors.New("无法找到终点信息，请使用更具体的地址")

	// ErrIntentParse means the model reply carried no parseable JSON object.
	ErrIntentParse = errors.New("无法解析地点信息")
)

// LaunchError wraps a browser-open failure. The navigation URL was already
// synthesized; only the hand-off to the OS failed.
type LaunchError struct {
	URL string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("打开浏览器失败: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
