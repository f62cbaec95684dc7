package response

// 业务码与 HTTP 状态码一致
const (
	CodeOK              = 200
	CodeCreated         = 201
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeValidation      = 422
	CodeTooManyRequests = 429
	CodeInternal        = 500
)
