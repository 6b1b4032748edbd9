package voiceprint

import "github.com/haivivi/voiceid/pkg/kv"

// Key layout (relative to the Store prefix):
//
//	{prefix}:ids       → msgpack []string         (speaker-id index, insertion order)
//	{prefix}:rec:{id}  → msgpack recordMeta       (name, model tag, source, time, dim)
//	{prefix}:emb:{id}  → binary payload           (see payload.go)
//
// The ids index enumerates all enrolled speakers without loading any
// embedding payload, and doubles as the durable insertion order. Every
// mutation rewrites the index together with the affected record in one
// atomic kv batch, so a crash can only ever expose the pre- or
// post-mutation state.
//
// Record keys are never decoded back into segments, so speaker ids may
// contain the kv separator without ambiguity: for a fixed prefix the
// encoded key is injective in the id.

// idsKey returns the key of the speaker-id index.
func idsKey(prefix kv.Key) kv.Key {
	return prefix.Child("ids")
}

// recordKey returns the metadata key for a speaker.
func recordKey(prefix kv.Key, id string) kv.Key {
	return prefix.Child("rec", id)
}

// embeddingKey returns the embedding-payload key for a speaker.
func embeddingKey(prefix kv.Key, id string) kv.Key {
	return prefix.Child("emb", id)
}

// recordMeta is the persisted metadata of one record. The embedding itself
// lives in a separate payload entry.
type recordMeta struct {
	SpeakerID    string `msgpack:"id"`
	SpeakerName  string `msgpack:"name"`
	ModelTag     string `msgpack:"model"`
	SourceRef    string `msgpack:"src,omitempty"`
	RegisteredAt int64  `msgpack:"ts"` // Unix nanoseconds
	Dim          int    `msgpack:"dim"`
}
