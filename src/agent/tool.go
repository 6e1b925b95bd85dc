package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/elee1766/polaris/src/aisdk"
	"github.com/go-playground/validator/v10"
	"github.com/swaggest/jsonschema-go"
)

// Definition is what the model sees of a tool.
type Definition interface {
	GetName() string
	GetDescription() string
	GetParameters() *jsonschema.Schema
}

// Handler implements a tool. It reports failures as text for the model to
// read, never as a Go error.
type Handler[T any] func(ctx context.Context, input T) string

// Tool is a typed tool: T is reflected into the parameter schema and the
// model's arguments are decoded and validated into T before Handler runs.
type Tool[T any] struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     Handler[T]
}

// NewTool reflects the schema of T, which must be a struct.
func NewTool[T any](name, description string, handler Handler[T]) (*Tool[T], error) {
	var input T
	inputType := reflect.TypeOf(input)
	if inputType == nil || inputType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool %s: input type must be a struct, got %v", name, inputType)
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input, jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("tool %s: failed to generate schema: %w", name, err)
	}

	return &Tool[T]{
		Name:        name,
		Description: description,
		Schema:      &schema,
		Handler:     handler,
	}, nil
}

func (t *Tool[T]) GetName() string {
	return t.Name
}

func (t *Tool[T]) GetDescription() string {
	return t.Description
}

func (t *Tool[T]) GetParameters() *jsonschema.Schema {
	return t.Schema
}

// Decode parses and validates the arguments of call. On failure the
// returned string is the message to hand back to the model.
func (t *Tool[T]) Decode(call *aisdk.ToolCall) (T, string, bool) {
	var input T
	if err := call.Function.DecodeArguments(&input); err != nil {
		return input, fmt.Sprintf("Error: invalid arguments for %s: %v", t.Name, err), false
	}
	if err := validate.Struct(input); err != nil {
		return input, fmt.Sprintf("Error: invalid arguments for %s: %s", t.Name, describeValidation(err)), false
	}
	return input, "", true
}

// Call runs the handler on already validated input.
func (t *Tool[T]) Call(ctx context.Context, input T) string {
	return t.Handler(ctx, input)
}

// Execute decodes, validates and runs call.
func (t *Tool[T]) Execute(ctx context.Context, call *aisdk.ToolCall) string {
	input, msg, ok := t.Decode(call)
	if !ok {
		return msg
	}
	return t.Call(ctx, input)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by the names the model uses
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		path := fe.Field()
		if len(field) == 2 {
			path = field[1]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", path))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s item(s)", path, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must have at most %s item(s)", path, fe.Param()))
		case "url", "http_url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", path))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", path, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ToChatTools converts tool definitions to the wire format.
func ToChatTools(defs ...Definition) []*aisdk.ChatTool {
	out := make([]*aisdk.ChatTool, len(defs))
	for i, d := range defs {
		out[i] = aisdk.NewFunctionTool(d.GetName(), d.GetDescription(), d.GetParameters())
	}
	return out
}
