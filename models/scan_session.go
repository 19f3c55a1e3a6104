package models

type StartScanResponse struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

type VerifyDocumentRequest struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
	// Image is the captured or uploaded photo, base64 encoded.
	Image string `json:"image"`
	Mime  string `json:"mime,omitempty"`
}

type VerifyCnpRequest struct {
	Cnp string `json:"cnp"`
}

type VerifyCnpResponse struct {
	Valid       bool   `json:"valid"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Age         int    `json:"age,omitempty"`
	County      string `json:"county,omitempty"`
}
