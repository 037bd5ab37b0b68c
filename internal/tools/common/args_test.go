package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipientFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"receiver", map[string]interface{}{"receiver": "01011112222"}, "01011112222"},
		{"email", map[string]interface{}{"email": "jane@example.com"}, "jane@example.com"},
		{"receiver wins", map[string]interface{}{"receiver": "010", "email": "jane@example.com"}, "010"},
		{"receiver array", map[string]interface{}{"receiver": []interface{}{"010", "011"}}, "010,011"},
		{"none", map[string]interface{}{"message": "hi"}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecipientFromArgs(tt.args))
		})
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{
		"text":   "  hello ",
		"number": float64(20251231),
		"int":    42,
		"bool":   true,
	}

	assert.Equal(t, "hello", StringArg(args, "text"))
	assert.Equal(t, "20251231", StringArg(args, "number"))
	assert.Equal(t, "42", StringArg(args, "int"))
	assert.Equal(t, "", StringArg(args, "bool"))
	assert.Equal(t, "", StringArg(args, "missing"))
}

func TestRequiredStringArg(t *testing.T) {
	v, err := RequiredStringArg(map[string]interface{}{"sender": "0212345678"}, "sender")
	assert.NoError(t, err)
	assert.Equal(t, "0212345678", v)

	_, err = RequiredStringArg(map[string]interface{}{"sender": "  "}, "sender")
	assert.EqualError(t, err, "sender is required")
}

func TestListArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    string
		wantErr bool
	}{
		{name: "missing", value: nil, want: ""},
		{name: "string", value: " 01011112222,01033334444 ", want: "01011112222,01033334444"},
		{name: "array", value: []interface{}{"01011112222", " 01033334444", ""}, want: "01011112222,01033334444"},
		{name: "number", value: float64(1011112222), want: "1011112222"},
		{name: "non-string item", value: []interface{}{"010", 7}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListArg(map[string]interface{}{"receiver": tt.value}, "receiver")
			if tt.wantErr {
				assert.EqualError(t, err, "receiver[1] must be a string")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
