package loyalty

import "github.com/pontos/backend/internal/domain/shared"

// Loyalty domain errors. Messages are shown to operators as-is.
var (
	ErrInvalidCPF     = shared.NewDomainError("INVALID_CPF", "CPF inválido.")
	ErrCPFRequired    = shared.NewDomainError("CPF_REQUIRED", "O campo CPF é obrigatório e deve ter 11 dígitos.")
	ErrCPFInUse       = shared.NewDomainError("CPF_IN_USE", "Este CPF já está em uso por outro cliente.")
	ErrCPFInUseByUser = shared.NewDomainError("CPF_IN_USE", "Este CPF já está em uso por outra conta.")
	ErrCPFAlreadySet  = shared.NewDomainError("CPF_ALREADY_SET", "O CPF deste cadastro já foi definido.")
	ErrInvalidPoints  = shared.NewDomainError("INVALID_POINTS", "A quantidade de pontos deve ser maior que zero.")
	ErrNegativePoints = shared.NewDomainError("INVALID_POINTS", "O saldo de pontos não pode ser negativo.")
	ErrInvalidPhone   = shared.NewDomainError("INVALID_PHONE", "Telefone inválido.")
	ErrInvalidEmail   = shared.NewDomainError("INVALID_EMAIL", "Email inválido.")
	ErrNameTooLong    = shared.NewDomainError("INVALID_NAME", "O nome não pode exceder 200 caracteres.")
	ErrPhotoRequired  = shared.NewDomainError("INVALID_PHOTO", "Arquivo de foto inválido.")
)
