package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

const transcriptTimeLayout = "1/2/2006, 3:04:05 PM"

var (
	reHeader  = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{4}, \d{1,2}:\d{2}:\d{2} [AP]M)\](.*)$`)
	reResult  = regexp.MustCompile(`^\d+$`)
	reFormula = regexp.MustCompile(`^(.+) = (.+) = (\d+)$`)
	reDice    = regexp.MustCompile(`^(\d*)d(\d+)(kh|kl)?\d*$`)
)

var abilityIDs = map[string]string{
	"Strength": "str", "Dexterity": "dex", "Constitution": "con",
	"Intelligence": "int", "Wisdom": "wis", "Charisma": "cha",
}

var skillIDs = map[string]string{
	"Acrobatics": "acr", "Animal Handling": "ani", "Arcana": "arc", "Athletics": "ath",
	"Deception": "dec", "History": "his", "Insight": "ins", "Intimidation": "itm",
	"Investigation": "inv", "Medicine": "med", "Nature": "nat", "Perception": "prc",
	"Performance": "prf", "Persuasion": "per", "Religion": "rel", "Sleight of Hand": "slt",
	"Stealth": "ste", "Survival": "sur",
}

// TranscriptSource reads the plain text chat log export. Each message starts
// with a "[M/D/YYYY, h:mm:ss AM] Speaker" header line.
type TranscriptSource struct {
	path string
	loc  *time.Location
	log  *logging.Logger
}

func openTranscript(opts Options, log *logging.Logger) (domain.RecordSource, error) {
	return &TranscriptSource{path: opts.Path, loc: opts.Location, log: log}, nil
}

func (s *TranscriptSource) Name() string { return "transcript" }

func (s *TranscriptSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	recs, err := ParseTranscript(ctx, f, s.loc)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("records", len(recs)).Msg("read transcript")
	return recs, nil
}

// ParseTranscript splits a transcript into records. Lines before the first
// header are ignored.
func ParseTranscript(ctx context.Context, r io.Reader, loc *time.Location) ([]domain.RawRecord, error) {
	if loc == nil {
		loc = time.UTC
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		recs  []domain.RawRecord
		block []string
		line  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		rec, err := transcriptRecord(block, loc)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
		block = nil
		return nil
	}

	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if reHeader.MatchString(text) {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			block = []string{text}
			continue
		}
		if block != nil && strings.TrimSpace(text) != "" {
			block = append(block, strings.TrimSpace(text))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	return recs, nil
}

func transcriptRecord(block []string, loc *time.Location) (domain.RawRecord, error) {
	m := reHeader.FindStringSubmatch(block[0])
	ts, err := time.ParseInLocation(transcriptTimeLayout, m[1], loc)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("parsing timestamp %q: %w", m[1], err)
	}
	speaker := strings.TrimSpace(m[2])
	body := block[1:]
	content := strings.Join(body, "\n")

	rec := domain.RawRecord{
		User:      speaker,
		Timestamp: ts.UnixMilli(),
		Content:   content,
	}
	if speaker != "" {
		rec.Alias = &speaker
	}

	roll, ok := parseTranscriptRoll(body)
	if !ok {
		return rec, nil
	}
	encoded, err := json.Marshal(roll)
	if err != nil {
		return domain.RawRecord{}, err
	}
	rec.Rolls = []json.RawMessage{encoded}
	rec.Flags = transcriptFlags(content)
	return rec, nil
}

type transcriptTerm struct {
	Class     string             `json:"class"`
	Number    int                `json:"number"`
	Faces     int                `json:"faces"`
	Modifiers []string           `json:"modifiers,omitempty"`
	Options   map[string]bool    `json:"options,omitempty"`
	Results   []transcriptResult `json:"results"`
}

type transcriptResult struct {
	Result int  `json:"result"`
	Active bool `json:"active"`
}

type transcriptRoll struct {
	Class   string           `json:"class"`
	Formula string           `json:"formula"`
	Total   int              `json:"total"`
	Terms   []transcriptTerm `json:"terms"`
}

// parseTranscriptRoll reads a result line followed by a
// "formula = expansion = total" line. Keep-highest and keep-lowest terms
// become single kept dice flagged with advantage or disadvantage, since the
// dropped face is not in the log. Multi-dice terms without a keep rule only
// contribute to the total.
func parseTranscriptRoll(lines []string) (transcriptRoll, bool) {
	if len(lines) < 2 || !reResult.MatchString(lines[0]) {
		return transcriptRoll{}, false
	}
	result, _ := strconv.Atoi(lines[0])

	var fm []string
	for _, l := range lines[1:] {
		if fm = reFormula.FindStringSubmatch(l); fm != nil {
			break
		}
	}
	if fm == nil {
		return transcriptRoll{}, false
	}
	if total, _ := strconv.Atoi(fm[3]); total != result {
		return transcriptRoll{}, false
	}

	formula := strings.Fields(fm[1])
	expansion := strings.Fields(fm[2])
	if len(formula) != len(expansion) {
		return transcriptRoll{}, false
	}

	roll := transcriptRoll{Class: "Roll", Formula: fm[1], Total: result}
	for i, term := range formula {
		dm := reDice.FindStringSubmatch(term)
		if dm == nil {
			continue
		}
		value, err := strconv.Atoi(expansion[i])
		if err != nil {
			continue
		}
		number := 1
		if dm[1] != "" {
			number, _ = strconv.Atoi(dm[1])
		}
		faces, _ := strconv.Atoi(dm[2])

		t := transcriptTerm{
			Class:   "Die",
			Number:  1,
			Faces:   faces,
			Results: []transcriptResult{{Result: value, Active: true}},
		}
		switch {
		case dm[3] == "kh":
			t.Modifiers = []string{"kh"}
			t.Options = map[string]bool{"advantage": number == 2 && faces == 20}
		case dm[3] == "kl":
			t.Modifiers = []string{"kl"}
			t.Options = map[string]bool{"disadvantage": number == 2 && faces == 20}
		case number != 1:
			continue
		}
		roll.Terms = append(roll.Terms, t)
	}
	return roll, true
}

// transcriptFlags derives a roll purpose from the card text.
func transcriptFlags(content string) json.RawMessage {
	roll := map[string]string{}
	switch {
	case strings.Contains(content, "Death Saving Throw"):
		roll["type"] = "death"
	case strings.Contains(content, "Saving Throw"):
		roll["type"] = "save"
		roll["abilityId"] = lookupPrefix(content, "Saving Throw", abilityIDs)
	case strings.Contains(content, "Attack Roll"):
		roll["type"] = "attack"
	case strings.Contains(content, "Skill Check"):
		roll["type"] = "skill"
		roll["skillId"] = lookupPrefix(content, "Skill Check", skillIDs)
	case strings.Contains(content, "Ability Check"):
		roll["type"] = "ability"
		roll["abilityId"] = lookupPrefix(content, "Ability Check", abilityIDs)
	default:
		return nil
	}
	encoded, _ := json.Marshal(map[string]any{"dnd5e": map[string]any{"roll": roll}})
	return encoded
}

// lookupPrefix finds "<Name> <suffix>" in content and returns the id of Name.
func lookupPrefix(content, suffix string, ids map[string]string) string {
	for name, id := range ids {
		if strings.Contains(content, name+" "+suffix) {
			return id
		}
	}
	return ""
}
