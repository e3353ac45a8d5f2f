package httpapi

// apiResponse is the uniform envelope for every bill endpoint.
type apiResponse struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

func successResponse(data any) apiResponse {
	return apiResponse{Success: true, Data: data}
}

func errorResponse(message string) apiResponse {
	return apiResponse{Success: false, Error: &message}
}
