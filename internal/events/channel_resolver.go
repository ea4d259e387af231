package events

import "strings"

// ChannelResolver maps an envelope to the transport-specific channel it is
// published on.
type ChannelResolver interface {
	ResolveChannel(env Envelope) string
}

// RedisChannelResolver routes groups to realtime:group:<group> and broadcasts
// to realtime:broadcast.
type RedisChannelResolver struct{}

func NewRedisChannelResolver() *RedisChannelResolver {
	return &RedisChannelResolver{}
}

func (r *RedisChannelResolver) ResolveChannel(env Envelope) string {
	if env.IsBroadcast() {
		return ChannelBroadcast
	}
	return ChannelPrefixGroup + env.Group
}

// SubjectResolver routes to dotted subjects: <prefix>.group.<kind>.<id> and
// <prefix>.broadcast.
type SubjectResolver struct {
	Prefix string
}

func NewSubjectResolver(prefix string) *SubjectResolver {
	if prefix == "" {
		prefix = "realtime"
	}
	return &SubjectResolver{Prefix: prefix}
}

func (r *SubjectResolver) ResolveChannel(env Envelope) string {
	if env.IsBroadcast() {
		return r.Prefix + ".broadcast"
	}
	return r.Prefix + ".group." + subjectToken(env.Group)
}

// subjectToken turns a group key into NATS-safe tokens: "restaurant:42" -> "restaurant.42".
func subjectToken(group string) string {
	return strings.NewReplacer(":", ".", " ", "_", "*", "_", ">", "_").Replace(group)
}
