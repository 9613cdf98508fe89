package transport

import "encoding/json"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LooseString decodes any JSON value, keeping only strings. Other types
// become "" so field validation reports them instead of the decoder.
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(v)
	return nil
}

// RegisterBody is what the register handler binds.
type RegisterBody struct {
	Username LooseString `json:"username"`
	Email    LooseString `json:"email"`
	Password LooseString `json:"password"`
}

func (b RegisterBody) Request() RegisterRequest {
	return RegisterRequest{
		Username: string(b.Username),
		Email:    string(b.Email),
		Password: string(b.Password),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// UpdateTaskRequest distinguishes an absent description from an explicit
// null: only a present, non-null string changes it.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Position    *int    `json:"position"`
}

type ReorderTasksRequest struct {
	TaskIDs []string `json:"taskIds"`
	Status  string   `json:"status"`
}

type CreateColumnRequest struct {
	Name        string  `json:"name"`
	StatusValue string  `json:"statusValue"`
	Color       *string `json:"color"`
}

type UpdateColumnRequest struct {
	Name        *string `json:"name"`
	StatusValue *string `json:"statusValue"`
	Color       *string `json:"color"`
	Position    *int    `json:"position"`
}

type ReorderColumnsRequest struct {
	ColumnIDs []string `json:"columnIds"`
}

// Envelope wraps every response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(code, message string) Envelope {
	return Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}}
}

// MarshalJSON drops the data key from failures.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return json.Marshal(struct {
			Success bool       `json:"success"`
			Error   *ErrorBody `json:"error"`
		}{Success: false, Error: e.Error})
	}
	return json.Marshal(struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{Success: true, Data: e.Data})
}
