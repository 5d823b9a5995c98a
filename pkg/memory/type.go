package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the tag of a memory Type.
type Kind string

const (
	KindEpisodic   Kind = "Episodic"
	KindSemantic   Kind = "Semantic"
	KindProcedural Kind = "Procedural"
	KindEmotional  Kind = "Emotional"
)

// Kinds lists every memory kind.
func Kinds() []Kind {
	return []Kind{KindEpisodic, KindSemantic, KindProcedural, KindEmotional}
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindEpisodic, KindSemantic, KindProcedural, KindEmotional:
		return k, nil
	default:
		return "", fmt.Errorf("unknown memory kind %q", s)
	}
}

// Type is the closed set of cognitive memory classifications. The only
// implementations are Episodic, Semantic, Procedural and Emotional.
type Type interface {
	Kind() Kind
	isType()
}

// Episodic is an event memory ("I talked to Mark about coffee").
type Episodic struct {
	EventID      *uuid.UUID `json:"event_id"`
	Participants []string   `json:"participants"`
	Location     *string    `json:"location"`
}

// Semantic is a fact memory ("Mark likes dark roast").
type Semantic struct {
	// Confidence is in [0, 1].
	Confidence float32 `json:"confidence"`
	Source     string  `json:"source"`
}

// Procedural is a skill memory ("how to make pour-over coffee").
type Procedural struct {
	SuccessRate  float32    `json:"success_rate"`
	LastExecuted *time.Time `json:"last_executed"`
}

// Emotional is an affect annotation.
type Emotional struct {
	// Valence is in [-1, 1], Arousal in [0, 1].
	Valence float32 `json:"valence"`
	Arousal float32 `json:"arousal"`
}

func (Episodic) Kind() Kind   { return KindEpisodic }
func (Semantic) Kind() Kind   { return KindSemantic }
func (Procedural) Kind() Kind { return KindProcedural }
func (Emotional) Kind() Kind  { return KindEmotional }

func (Episodic) isType()   {}
func (Semantic) isType()   {}
func (Procedural) isType() {}
func (Emotional) isType()  {}

// typeEnvelope is the adjacently tagged wire form of a Type.
type typeEnvelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalType encodes t as {"type": "<Kind>", "data": {...}}. A nil Type
// encodes as null.
func MarshalType(t Type) ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding %s data: %w", t.Kind(), err)
	}

	return json.Marshal(typeEnvelope{Type: t.Kind(), Data: data})
}

// UnmarshalType decodes the tagged form produced by MarshalType.
func UnmarshalType(data []byte) (Type, error) {
	var env typeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case KindEpisodic:
		var t Episodic
		if err := decodeData(env, &t); err != nil {
			return nil, err
		}
		return t, nil
	case KindSemantic:
		var t Semantic
		if err := decodeData(env, &t); err != nil {
			return nil, err
		}
		return t, nil
	case KindProcedural:
		var t Procedural
		if err := decodeData(env, &t); err != nil {
			return nil, err
		}
		return t, nil
	case KindEmotional:
		var t Emotional
		if err := decodeData(env, &t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown memory kind %q", env.Type)
	}
}

func decodeData(env typeEnvelope, target any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("missing data for %s memory", env.Type)
	}
	return json.Unmarshal(env.Data, target)
}
