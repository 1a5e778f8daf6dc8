package cmd

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Translation is a message format shared by commands.
type Translation string

const (
	MessageUnknown          Translation = "Unknown command: %v. Please check that the command exists and that you have permission to use it."
	MessageNoPermission     Translation = "You do not have permission to use this command."
	MessageParameterInvalid Translation = "Syntax error: unexpected value: %v"
	MessageUsage            Translation = "Usage: %v"
)

// printer formats numbers in command output with digit grouping.
var printer = message.NewPrinter(language.English)

// Output holds the output of a command execution: the messages and errors
// produced while running it.
type Output struct {
	messages []string
	errors   []error
}

// Print formats the arguments like fmt.Sprint and adds the result as a
// message.
func (o *Output) Print(a ...any) {
	o.messages = append(o.messages, printer.Sprint(a...))
}

// Printf formats the arguments like fmt.Sprintf and adds the result as a
// message. Numbers are printed with digit grouping.
func (o *Output) Printf(format string, a ...any) {
	o.messages = append(o.messages, printer.Sprintf(format, a...))
}

// Error formats the arguments like fmt.Sprint and adds the result as an
// error. A single error argument is added as it is.
func (o *Output) Error(a ...any) {
	if len(a) == 1 {
		if err, ok := a[0].(error); ok {
			o.errors = append(o.errors, err)
			return
		}
	}
	o.errors = append(o.errors, errors.New(printer.Sprint(a...)))
}

// Errorf formats the arguments like fmt.Errorf and adds the result as an
// error.
func (o *Output) Errorf(format string, a ...any) {
	o.errors = append(o.errors, fmt.Errorf(format, a...))
}

// Errort adds a Translation formatted with the arguments passed as an error.
func (o *Output) Errort(t Translation, a ...any) {
	o.errors = append(o.errors, errors.New(printer.Sprintf(string(t), a...)))
}

// Messages returns the messages added to the Output.
func (o *Output) Messages() []string {
	return o.messages
}

// Errors returns the errors added to the Output.
func (o *Output) Errors() []error {
	return o.errors
}

// MessageCount returns the number of messages added to the Output.
func (o *Output) MessageCount() int {
	return len(o.messages)
}

// ErrorCount returns the number of errors added to the Output.
func (o *Output) ErrorCount() int {
	return len(o.errors)
}
