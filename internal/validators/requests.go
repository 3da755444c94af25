package validators

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/mail"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a subset
// of fields (field-level scoping).
const (
	// FieldUsername targets the username of a registration request.
	FieldUsername = "username"

	// FieldEmail targets the email of a registration or login request.
	FieldEmail = "email"

	// FieldPassword targets the password of a registration request.
	// Login requests only check for presence, not strength.
	FieldPassword = "password"

	// FieldAgentName targets the display name of an agent.
	FieldAgentName = "agent_name"

	// FieldServiceType targets the service type of an agent.
	FieldServiceType = "service_type"

	// FieldConfig targets the free-form JSON configuration of an agent.
	FieldConfig = "config"

	// FieldPriority targets the scheduling priority of a task.
	FieldPriority = "priority"

	// FieldPayload targets the JSON payload of a task.
	FieldPayload = "payload"

	// FieldAddress targets a wallet address.
	FieldAddress = "address"

	// FieldAmount targets a token amount carried as a decimal string.
	FieldAmount = "amount"

	// FieldAgentID targets the agent reference of a listing.
	FieldAgentID = "agent_id"

	// FieldPrice targets the asking price of a listing.
	FieldPrice = "price"

	// FieldDescription targets the description of a listing.
	FieldDescription = "description"

	// FieldTags targets the tag list of a listing.
	FieldTags = "tags"

	// FieldTTL targets the expiry window of a listing.
	FieldTTL = "ttl"
)

const (
	maxDescriptionLen = 2000
	maxTags           = 10
	maxTagLen         = 30
	maxTTLHours       = 24 * 365
	maxAmountScale    = 18 // matches NUMERIC(36,18) storage
)

// RequestValidator implements the Validator interface for all inbound API
// request models: registration, login, agent management, task submission,
// wallet operations, and marketplace listings.
//
// It supports both value and pointer receivers for every model type and
// allows optional field-level scoping via variadic field name arguments.
type RequestValidator struct {
}

// NewRequestValidator constructs a new RequestValidator and returns it as
// the Validator interface.
func NewRequestValidator() Validator {
	return &RequestValidator{}
}

// Validate dispatches validation to the appropriate type-specific method
// based on the dynamic type of obj. Both value and pointer forms of each
// supported model are accepted.
//
// Supported types:
//   - models.RegisterRequest / *models.RegisterRequest
//   - models.LoginRequest / *models.LoginRequest
//   - models.CreateAgentRequest / *models.CreateAgentRequest
//   - models.UpdateAgentRequest / *models.UpdateAgentRequest
//   - models.SubmitTaskRequest / *models.SubmitTaskRequest
//   - models.TransferRequest / *models.TransferRequest
//   - models.StakeRequest / *models.StakeRequest
//   - models.CreateListingRequest / *models.CreateListingRequest
//   - models.UpdateListingRequest / *models.UpdateListingRequest
//
// Returns ErrUnsupportedType if obj does not match any known model.
// Optional fields restrict validation to the named subset; when omitted,
// a sensible default set of fields is validated.
func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.RegisterRequest:
		return v.validateRegister(ctx, value, fields...)
	case *models.RegisterRequest:
		return v.validateRegister(ctx, *value, fields...)

	case models.LoginRequest:
		return v.validateLogin(ctx, value, fields...)
	case *models.LoginRequest:
		return v.validateLogin(ctx, *value, fields...)

	case models.CreateAgentRequest:
		return v.validateCreateAgent(ctx, value, fields...)
	case *models.CreateAgentRequest:
		return v.validateCreateAgent(ctx, *value, fields...)

	case models.UpdateAgentRequest:
		return v.validateUpdateAgent(ctx, value, fields...)
	case *models.UpdateAgentRequest:
		return v.validateUpdateAgent(ctx, *value, fields...)

	case models.SubmitTaskRequest:
		return v.validateSubmitTask(ctx, value, fields...)
	case *models.SubmitTaskRequest:
		return v.validateSubmitTask(ctx, *value, fields...)

	case models.TransferRequest:
		return v.validateTransfer(ctx, value, fields...)
	case *models.TransferRequest:
		return v.validateTransfer(ctx, *value, fields...)

	case models.StakeRequest:
		return v.validateStake(ctx, value, fields...)
	case *models.StakeRequest:
		return v.validateStake(ctx, *value, fields...)

	case models.CreateListingRequest:
		return v.validateCreateListing(ctx, value, fields...)
	case *models.CreateListingRequest:
		return v.validateCreateListing(ctx, *value, fields...)

	case models.UpdateListingRequest:
		return v.validateUpdateListing(ctx, value, fields...)
	case *models.UpdateListingRequest:
		return v.validateUpdateListing(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateRegister validates a registration request.
//
// Default validated fields: Username, Email, Password.
func (v *RequestValidator) validateRegister(_ context.Context, req models.RegisterRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUsername, FieldEmail, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldUsername:
			if !validUsername(req.Username) {
				return ErrInvalidUsername
			}
		case FieldEmail:
			if !validEmail(req.Email) {
				return ErrInvalidEmail
			}
		case FieldPassword:
			if !strongPassword(req.Password) {
				return ErrWeakPassword
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateLogin validates a login request. The password is only checked for
// presence: strength rules apply at registration time, and rejecting old
// passwords here would lock users out after a policy change.
func (v *RequestValidator) validateLogin(_ context.Context, req models.LoginRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldEmail:
			if !validEmail(req.Email) {
				return ErrInvalidEmail
			}
		case FieldPassword:
			if req.Password == "" {
				return ErrWeakPassword
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateCreateAgent validates an agent creation request.
//
// Default validated fields: AgentName, ServiceType, Config, Description.
func (v *RequestValidator) validateCreateAgent(_ context.Context, req models.CreateAgentRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldAgentName, FieldServiceType, FieldConfig, FieldDescription}
	}

	for _, f := range fields {
		switch f {
		case FieldAgentName:
			if !validAgentName(req.Name) {
				return ErrInvalidAgentName
			}
		case FieldServiceType:
			if !req.Type.Valid() {
				return ErrInvalidServiceType
			}
		case FieldConfig:
			if err := validConfig(req.Config); err != nil {
				return err
			}
		case FieldDescription:
			if len(req.Description) > maxDescriptionLen {
				return ErrDescriptionTooLong
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateUpdateAgent validates a partial agent update. At least one field
// must be present; present fields must individually pass the same rules as
// at creation time. Status transition legality is the service's concern.
func (v *RequestValidator) validateUpdateAgent(_ context.Context, req models.UpdateAgentRequest, _ ...string) error {
	if req.Name == nil && req.Description == nil && req.Status == nil && req.Config == nil {
		return ErrNoFieldsToUpdate
	}

	if req.Name != nil && !validAgentName(*req.Name) {
		return ErrInvalidAgentName
	}
	if req.Description != nil && len(*req.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if req.Status != nil && !req.Status.Valid() {
		return ErrInvalidAgentStatus
	}
	if req.Config != nil {
		if err := validConfig(*req.Config); err != nil {
			return err
		}
	}

	return nil
}

// validateSubmitTask validates a task submission.
//
// Default validated fields: Priority, Payload.
func (v *RequestValidator) validateSubmitTask(_ context.Context, req models.SubmitTaskRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldPriority, FieldPayload}
	}

	for _, f := range fields {
		switch f {
		case FieldPriority:
			if req.Priority < int(models.PriorityHigh) || req.Priority > int(models.PriorityLow) {
				return ErrInvalidPriority
			}
		case FieldPayload:
			if len(req.Payload) == 0 {
				return ErrEmptyPayload
			}
			if !json.Valid(req.Payload) {
				return fmt.Errorf("%w: payload is not valid JSON", ErrEmptyPayload)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateTransfer validates a wallet transfer request.
//
// Default validated fields: Address, Amount.
func (v *RequestValidator) validateTransfer(_ context.Context, req models.TransferRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldAddress, FieldAmount}
	}

	for _, f := range fields {
		switch f {
		case FieldAddress:
			if !ValidAddress(req.ToAddress) {
				return ErrInvalidAddress
			}
		case FieldAmount:
			if _, err := ParseAmount(req.Amount); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateStake validates a stake or unstake request.
func (v *RequestValidator) validateStake(_ context.Context, req models.StakeRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldAmount}
	}

	for _, f := range fields {
		switch f {
		case FieldAmount:
			if _, err := ParseAmount(req.Amount); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateCreateListing validates a listing creation request. The price
// floor (MIN_LISTING_PRICE) is enforced by the marketplace service, which
// knows the configured value; here the price only needs to be a positive
// decimal.
func (v *RequestValidator) validateCreateListing(_ context.Context, req models.CreateListingRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldAgentID, FieldPrice, FieldDescription, FieldTags, FieldTTL}
	}

	for _, f := range fields {
		switch f {
		case FieldAgentID:
			if req.AgentID == "" {
				return ErrInvalidAgentID
			}
		case FieldPrice:
			if err := validPrice(req.Price); err != nil {
				return err
			}
		case FieldDescription:
			if len(req.Description) > maxDescriptionLen {
				return ErrDescriptionTooLong
			}
		case FieldTags:
			if err := validTags(req.Tags); err != nil {
				return err
			}
		case FieldTTL:
			if req.TTLHours < 0 || req.TTLHours > maxTTLHours {
				return ErrInvalidTTL
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateUpdateListing validates a partial listing update against the
// allowed field whitelist: description, price, tags.
func (v *RequestValidator) validateUpdateListing(_ context.Context, req models.UpdateListingRequest, _ ...string) error {
	if req.Description == nil && req.Price == nil && req.Tags == nil {
		return ErrNoFieldsToUpdate
	}

	if req.Description != nil && len(*req.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if req.Price != nil {
		if err := validPrice(*req.Price); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		if err := validTags(*req.Tags); err != nil {
			return err
		}
	}

	return nil
}

// ValidAddress reports whether s is a well-formed wallet address:
// "0x" followed by exactly 40 hex digits.
func ValidAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// ParseAmount parses a token amount carried as a decimal string. The amount
// must be strictly positive and must not exceed 18 fractional digits, the
// precision of the backing NUMERIC column.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Exponent() < -maxAmountScale {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func validUsername(s string) bool {
	if len(s) < 3 || len(s) > 50 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	// reject the "Name <addr>" form: the field must be a bare address
	return err == nil && addr.Address == s
}

func strongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

func validAgentName(s string) bool {
	return len(s) >= 1 && len(s) <= 100
}

func validConfig(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil // config is optional
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ErrInvalidConfig
	}
	return nil
}

func validPrice(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	if !d.IsPositive() {
		return ErrInvalidPrice
	}
	if d.Exponent() < -maxAmountScale {
		return ErrInvalidPrice
	}
	return nil
}

func validTags(tags []string) error {
	if len(tags) > maxTags {
		return ErrTooManyTags
	}
	for _, tag := range tags {
		if len(tag) == 0 || len(tag) > maxTagLen {
			return ErrInvalidTag
		}
	}
	return nil
}
