package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/schema"
)

type contextKey int

const (
	sessionKey contextKey = iota
	commandKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// OrDefault returns log, or the context-free default logger when log is nil.
func OrDefault(log pslog.Logger) pslog.Logger {
	if log == nil {
		return pslog.Ctx(context.Background())
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithSessionCtx annotates the context logger with the session id unless the
// context already carries that session marker.
func WithSessionCtx(ctx context.Context, sessionID schema.SessionID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if sessionID == "" {
		return log
	}
	if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
		return log
	}
	return log.With("session", sessionID)
}

// WithCommand annotates the logger with command fields that are set.
func WithCommand(log pslog.Logger, cmd schema.Command) pslog.Logger {
	log = log.With("command", string(cmd.Name))
	if cmd.Session != "" {
		log = log.With("session", cmd.Session)
	}
	switch cmd.Name {
	case schema.CommandGotoTab:
		log = log.With("position", cmd.Position.String())
	case schema.CommandReorderTab:
		log = log.With("index", cmd.Index)
	}
	if cmd.Target != nil {
		log = log.With("target", cmd.Target.String())
	}
	if cmd.Record != nil && cmd.Session == "" {
		log = log.With("session", cmd.Record.SessionID)
	}
	return log
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithCommand stores the command name on the context.
func ContextWithCommand(ctx context.Context, name schema.CommandName) context.Context {
	if ctx == nil || name == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, name)
}

// CommandFromContext returns the command name stored on the context, if any.
func CommandFromContext(ctx context.Context) schema.CommandName {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(commandKey).(schema.CommandName)
	return name
}

// ContextWithSessionLogger attaches the logger and session marker to the context.
func ContextWithSessionLogger(ctx context.Context, log pslog.Logger, sessionID schema.SessionID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ctx, sessionID)
}

// CopyContextFields copies session and command markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if session, ok := src.Value(sessionKey).(schema.SessionID); ok && session != "" {
		dst = ContextWithSession(dst, session)
	}
	if name, ok := src.Value(commandKey).(schema.CommandName); ok && name != "" {
		dst = ContextWithCommand(dst, name)
	}
	return dst
}
