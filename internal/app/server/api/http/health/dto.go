package health

type Input struct{}

type Output struct {
	Body Response
}

// Response - статус сервиса и результат проверки каждой зависимости
type Response struct {
	Status string            `json:"status" example:"OK" doc:"Service status"`
	Checks map[string]string `json:"checks" doc:"Dependency name to check result"`
}
