package httpapi

import "net/http"

// Result 统一响应信封
// - code: 2000 成功；4xxx 请求参数错误；5xxx 服务端失败（见下方业务码）
// - type: 'success' | 'error'
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// 业务码
const (
	ResultSuccess = 2000

	ResultUnknownChart = 4001 // ?chart= 不是 watch / widget / extended

	ResultSnapshotFailed = 5001
	ResultReadingsFailed = 5002
	ResultExportFailed   = 5003
	ResultDisconnected   = 5031 // 手表未连接 broker，显示内容可能已过期
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fail 错误响应，code 为上面的业务码之一
func Fail(code int, message string) Result[any] {
	return FailWith[any](code, message, nil)
}

// FailWith 错误响应但仍携带结果（如断连时的健康信息）
func FailWith[T any](code int, message string, result T) Result[T] {
	return Result[T]{Code: code, Type: "error", Message: message, Result: result}
}

// httpStatus 业务码对应的 HTTP 状态码
func httpStatus(code int) int {
	switch {
	case code == ResultSuccess:
		return http.StatusOK
	case code == ResultDisconnected:
		return http.StatusServiceUnavailable
	case code >= 4000 && code < 5000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeResult 按业务码决定 HTTP 状态码并写出信封
func writeResult[T any](w http.ResponseWriter, res Result[T]) {
	writeJSON(w, httpStatus(res.Code), res)
}
