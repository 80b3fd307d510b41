package contract

// IdentifyPath путь эндпоинта прокси.
const IdentifyPath = "/api/identify"

// IdentifyRequest тело запроса к прокси. Image: base64, допускается
// префикс data:<mime>;base64,.
type IdentifyRequest struct {
	Image string `json:"image"`
}

// ErrorBody тело ответа прокси с ошибкой.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
