package user

type credentials struct {
	Email    string `json:"email" format:"email" maxLength:"254" doc:"User email"`
	Password string `json:"password" minLength:"1" maxLength:"72" doc:"User password"`
}

type registerInput struct {
	Body credentials
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	ID     string `json:"user_id"`
	Status string `json:"status"`
}

type loginInput struct {
	Body credentials
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Status string `json:"status"`
}
