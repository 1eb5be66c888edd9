package speech

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Picker tracks the voices a synthesizer offers and which one is in
// use. Engines enumerate voices asynchronously, so the list may arrive
// after playback has been requested; until a non-empty list shows up
// Current reports no selection and the UI keeps playback disabled.
type Picker struct {
	mu        sync.Mutex
	available []Voice
	current   Voice
	selected  bool

	preferred string       // case-insensitive name fragment from config
	lang      language.Tag // desired language from config
}

// NewPicker returns a picker that will prefer voices whose name
// contains preferredName, then voices matching languageTag, then the
// first voice delivered. Both arguments may be empty.
func NewPicker(preferredName, languageTag string) *Picker {
	tag, err := language.Parse(normalizeTag(languageTag))
	if err != nil {
		tag = language.Und
	}
	return &Picker{
		preferred: strings.ToLower(preferredName),
		lang:      tag,
	}
}

// SetAvailable replaces the voice list. On the first non-empty
// delivery a default voice is chosen. If a later delivery no longer
// contains the selected voice, a new default is chosen.
func (p *Picker) SetAvailable(voices []Voice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = voices

	if p.selected {
		for _, v := range voices {
			if v.ID == p.current.ID {
				return
			}
		}
		p.selected = false
	}
	if len(voices) == 0 {
		return
	}
	p.current = p.pickDefault(voices)
	p.selected = true
}

// Select chooses a voice by ID. Unknown IDs leave the selection
// unchanged.
func (p *Picker) Select(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, v := range p.available {
		if v.ID == id {
			p.current = v
			p.selected = true
			return nil
		}
	}
	return ErrVoiceNotFound
}

// Next cycles to the voice after the current one, wrapping around.
func (p *Picker) Next() (Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.available) == 0 {
		return Voice{}, ErrNoVoices
	}
	if !p.selected {
		p.current = p.available[0]
		p.selected = true
		return p.current, nil
	}
	for i, v := range p.available {
		if v.ID == p.current.ID {
			p.current = p.available[(i+1)%len(p.available)]
			return p.current, nil
		}
	}
	p.current = p.available[0]
	return p.current, nil
}

// Current returns the selected voice. ok is false until a voice list
// has arrived.
func (p *Picker) Current() (Voice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.selected
}

// Available returns a copy of the known voice list.
func (p *Picker) Available() []Voice {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Voice, len(p.available))
	copy(out, p.available)
	return out
}

// pickDefault applies the default-selection policy: preferred name
// fragment first, then language match, then the first voice.
func (p *Picker) pickDefault(voices []Voice) Voice {
	if p.preferred != "" {
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), p.preferred) {
				return v
			}
		}
	}
	if p.lang != language.Und {
		if v, ok := matchLanguage(voices, p.lang); ok {
			return v
		}
	}
	return voices[0]
}

// matchLanguage finds the voice whose language tag best matches want.
func matchLanguage(voices []Voice, want language.Tag) (Voice, bool) {
	tags := make([]language.Tag, 0, len(voices))
	idx := make([]int, 0, len(voices))
	for i, v := range voices {
		tag, err := language.Parse(normalizeTag(v.Language))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		idx = append(idx, i)
	}
	if len(tags) == 0 {
		return Voice{}, false
	}
	matcher := language.NewMatcher(tags)
	_, i, conf := matcher.Match(want)
	if conf == language.No {
		return Voice{}, false
	}
	return voices[idx[i]], true
}

// normalizeTag maps engine-style tags like "en_US" onto BCP 47.
func normalizeTag(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
}
