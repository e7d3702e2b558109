package response

// SuccessResponse representa uma resposta de sucesso da API
type SuccessResponse struct {
	Message string `json:"message" example:"Operação realizada com sucesso"`
}

// ErrorResponse representa uma resposta de erro da API
type ErrorResponse struct {
	// Código do erro para tratamento programático
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Mensagem legível sobre o erro
	// example: Erro de validação dos dados
	Message string `json:"message"`

	// Detalhes adicionais do erro (opcional)
	Details string `json:"details,omitempty"`
}

// TokenResponse representa a resposta com os tokens de autenticação
type TokenResponse struct {
	// JWT de acesso aos endpoints protegidos
	AccessToken string `json:"access_token"`

	// JWT para renovar o token de acesso
	RefreshToken string `json:"refresh_token"`

	// Indica que o usuário precisa trocar a senha antes de usar o sistema
	MustChangePassword bool `json:"must_change_password"`
}
