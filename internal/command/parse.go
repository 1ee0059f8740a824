package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/tabstrip/schema"
)

// aliases maps accepted command words to canonical names. The channel-style
// names are the ones emitted by menus and key accelerators.
var aliases = map[string]schema.CommandName{
	"open-new-tab":        schema.CommandOpenNewTab,
	"file:new-tab":        schema.CommandOpenNewTab,
	"new":                 schema.CommandOpenNewTab,
	"open-target-tab":     schema.CommandOpenTargetTab,
	"open":                schema.CommandOpenTargetTab,
	"close-active-tab":    schema.CommandCloseActiveTab,
	"file:close-tab":      schema.CommandCloseActiveTab,
	"close":               schema.CommandCloseActiveTab,
	"close-tab":           schema.CommandCloseTab,
	"goto-tab":            schema.CommandGotoTab,
	"window:goto-tab":     schema.CommandGotoTab,
	"goto":                schema.CommandGotoTab,
	"next-tab":            schema.CommandNextTab,
	"window:next-tab":     schema.CommandNextTab,
	"next":                schema.CommandNextTab,
	"previous-tab":        schema.CommandPreviousTab,
	"window:previous-tab": schema.CommandPreviousTab,
	"prev":                schema.CommandPreviousTab,
	"previous":            schema.CommandPreviousTab,
	"select-tab":          schema.CommandSelectTab,
	"select":              schema.CommandSelectTab,
	"reorder-tab":         schema.CommandReorderTab,
	"move":                schema.CommandReorderTab,
	"session-opened":      schema.CommandSessionOpened,
	"session-closed":      schema.CommandSessionClosed,
	"session-updated":     schema.CommandSessionUpdated,
}

// Parse parses a single command line such as "goto-tab last" or
// "/open https://example.com". A leading "/" is optional.
func Parse(input string) (schema.Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return schema.Command{}, fmt.Errorf("%w: empty command", schema.ErrInvalidCommand)
	}
	word := strings.ToLower(fields[0])
	name, ok := aliases[word]
	if !ok {
		return schema.Command{}, fmt.Errorf("%w: unknown command %q", schema.ErrInvalidCommand, fields[0])
	}
	args := fields[1:]
	remainder := remainderAfterTokens(raw, 1)
	cmd := schema.Command{Name: name}

	switch name {
	case schema.CommandOpenNewTab:
		if remainder == "" {
			return cmd, nil
		}
		// "new <target>" is the same as "open <target>".
		cmd.Name = schema.CommandOpenTargetTab
		return withTarget(cmd, remainder)
	case schema.CommandOpenTargetTab:
		if remainder == "" {
			return schema.Command{}, usage(name, "<target>")
		}
		return withTarget(cmd, remainder)
	case schema.CommandCloseActiveTab:
		if len(args) == 0 {
			return cmd, nil
		}
		if len(args) != 1 {
			return schema.Command{}, usage(name, "[session]")
		}
		cmd.Name = schema.CommandCloseTab
		return withSession(cmd, args[0])
	case schema.CommandCloseTab, schema.CommandSelectTab, schema.CommandSessionClosed:
		if len(args) != 1 {
			return schema.Command{}, usage(name, "<session>")
		}
		return withSession(cmd, args[0])
	case schema.CommandGotoTab:
		if len(args) != 1 {
			return schema.Command{}, usage(name, "<index|last>")
		}
		pos, err := schema.ParsePosition(args[0])
		if err != nil {
			return schema.Command{}, fmt.Errorf("%w: %v", schema.ErrInvalidCommand, err)
		}
		cmd.Position = pos
		return cmd, nil
	case schema.CommandNextTab, schema.CommandPreviousTab:
		if len(args) != 0 {
			return schema.Command{}, usage(name, "")
		}
		return cmd, nil
	case schema.CommandReorderTab:
		if len(args) != 2 {
			return schema.Command{}, usage(name, "<session> <index>")
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return schema.Command{}, usage(name, "<session> <index>")
		}
		cmd.Index = index
		return withSession(cmd, args[0])
	case schema.CommandSessionOpened, schema.CommandSessionUpdated:
		if remainder == "" {
			return schema.Command{}, usage(name, "<record-json>")
		}
		var rec schema.TabRecord
		if err := json.Unmarshal([]byte(remainder), &rec); err != nil {
			return schema.Command{}, fmt.Errorf("%w: %s record: %v", schema.ErrInvalidCommand, name, err)
		}
		if err := schema.ValidateSessionID(rec.SessionID); err != nil {
			return schema.Command{}, fmt.Errorf("%w: %s record: %v", schema.ErrInvalidCommand, name, err)
		}
		cmd.Session = rec.SessionID
		cmd.Record = &rec
		return cmd, nil
	}
	return schema.Command{}, fmt.Errorf("%w: unknown command %q", schema.ErrInvalidCommand, fields[0])
}

// ParseExternal parses a command line received from outside the process.
// Session lifecycle callbacks are rejected there.
func ParseExternal(input string) (schema.Command, error) {
	cmd, err := Parse(input)
	if err != nil {
		return schema.Command{}, err
	}
	if cmd.Name.Lifecycle() {
		return schema.Command{}, fmt.Errorf("%w: %s is reserved for the session manager", schema.ErrInvalidCommand, cmd.Name)
	}
	return cmd, nil
}

// Format renders cmd in the canonical line form accepted by Parse.
func Format(cmd schema.Command) (string, error) {
	switch cmd.Name {
	case schema.CommandOpenNewTab, schema.CommandCloseActiveTab, schema.CommandNextTab, schema.CommandPreviousTab:
		return string(cmd.Name), nil
	case schema.CommandOpenTargetTab:
		if cmd.Target == nil {
			return "", usage(cmd.Name, "<target>")
		}
		return string(cmd.Name) + " " + cmd.Target.String(), nil
	case schema.CommandCloseTab, schema.CommandSelectTab, schema.CommandSessionClosed:
		if cmd.Session == "" {
			return "", usage(cmd.Name, "<session>")
		}
		return string(cmd.Name) + " " + string(cmd.Session), nil
	case schema.CommandGotoTab:
		return string(cmd.Name) + " " + cmd.Position.String(), nil
	case schema.CommandReorderTab:
		if cmd.Session == "" {
			return "", usage(cmd.Name, "<session> <index>")
		}
		return fmt.Sprintf("%s %s %d", cmd.Name, cmd.Session, cmd.Index), nil
	case schema.CommandSessionOpened, schema.CommandSessionUpdated:
		if cmd.Record == nil {
			return "", usage(cmd.Name, "<record-json>")
		}
		data, err := json.Marshal(cmd.Record)
		if err != nil {
			return "", err
		}
		return string(cmd.Name) + " " + string(data), nil
	}
	return "", fmt.Errorf("%w: unknown command %q", schema.ErrInvalidCommand, cmd.Name)
}

func withTarget(cmd schema.Command, raw string) (schema.Command, error) {
	target, err := schema.ParseTarget(raw)
	if err != nil {
		return schema.Command{}, fmt.Errorf("%w: %v", schema.ErrInvalidCommand, err)
	}
	cmd.Target = &target
	return cmd, nil
}

func withSession(cmd schema.Command, raw string) (schema.Command, error) {
	id := schema.SessionID(raw)
	if err := schema.ValidateSessionID(id); err != nil {
		return schema.Command{}, fmt.Errorf("%w: %v", schema.ErrInvalidCommand, err)
	}
	cmd.Session = id
	return cmd, nil
}

func usage(name schema.CommandName, args string) error {
	if args == "" {
		return fmt.Errorf("%w: usage: %s", schema.ErrInvalidCommand, name)
	}
	return fmt.Errorf("%w: usage: %s %s", schema.ErrInvalidCommand, name, args)
}

func remainderAfterTokens(raw string, count int) string {
	i := 0
	remaining := count
	for remaining > 0 && i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		for i < len(raw) && !isSpace(raw[i]) {
			i++
		}
		remaining--
	}
	if i >= len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
