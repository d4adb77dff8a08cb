package neural

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	padSymbol   = "_"
	punctuation = "!'(),.:;? "
	special     = "-"
	letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Symbols — таблица символов акустической модели; индекс в строке = id.
var Symbols = []rune(padSymbol + punctuation + special + letters)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`[0-9]+`)

	abbreviations = []struct {
		re   *regexp.Regexp
		full string
	}{
		{regexp.MustCompile(`\bmrs\.`), "misess"},
		{regexp.MustCompile(`\bmr\.`), "mister"},
		{regexp.MustCompile(`\bdr\.`), "doctor"},
		{regexp.MustCompile(`\bst\.`), "saint"},
		{regexp.MustCompile(`\bco\.`), "company"},
		{regexp.MustCompile(`\bjr\.`), "junior"},
		{regexp.MustCompile(`\bmaj\.`), "major"},
		{regexp.MustCompile(`\bgen\.`), "general"},
		{regexp.MustCompile(`\bdrs\.`), "doctors"},
		{regexp.MustCompile(`\brev\.`), "reverend"},
		{regexp.MustCompile(`\blt\.`), "lieutenant"},
		{regexp.MustCompile(`\bhon\.`), "honorable"},
		{regexp.MustCompile(`\bsgt\.`), "sergeant"},
		{regexp.MustCompile(`\bcapt\.`), "captain"},
		{regexp.MustCompile(`\besq\.`), "esquire"},
		{regexp.MustCompile(`\bltd\.`), "limited"},
		{regexp.MustCompile(`\bcol\.`), "colonel"},
		{regexp.MustCompile(`\bft\.`), "fort"},
	}

	ones = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}
	tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

type cleaner func(string) string

var cleaners = map[string][]cleaner{
	"basic_cleaners":           {strings.ToLower, collapseWhitespace},
	"transliteration_cleaners": {toASCII, strings.ToLower, collapseWhitespace},
	"english_cleaners":         {toASCII, strings.ToLower, expandNumbers, expandAbbreviations, collapseWhitespace},
}

// Frontend превращает текст в последовательность id символов.
type Frontend struct {
	cleaners []cleaner
	addBlank bool
	ids      map[rune]int
}

func NewFrontend(names []string, addBlank bool) (*Frontend, error) {
	f := &Frontend{addBlank: addBlank, ids: make(map[rune]int, len(Symbols))}
	for _, n := range names {
		cs, ok := cleaners[n]
		if !ok {
			return nil, fmt.Errorf("neural: unknown text cleaner %q", n)
		}
		f.cleaners = append(f.cleaners, cs...)
	}
	for i, r := range Symbols {
		f.ids[r] = i
	}
	return f, nil
}

// Clean прогоняет текст через english_cleaners.
func Clean(text string) string {
	for _, c := range cleaners["english_cleaners"] {
		text = c(text)
	}
	return text
}

// Sequence возвращает id символов. Неизвестные символы пропускаются.
// С add_blank между символами вставляется blank (id = len(Symbols)),
// без него фраза обрамляется пробелами.
func (f *Frontend) Sequence(text string) []int {
	for _, c := range f.cleaners {
		text = c(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []int{}
	}
	if !f.addBlank {
		text = " " + text + " "
	}

	seq := make([]int, 0, len(text))
	for _, r := range text {
		if id, ok := f.ids[r]; ok {
			seq = append(seq, id)
		}
	}
	if f.addBlank {
		seq = intersperse(seq, len(Symbols))
	}
	return seq
}

func intersperse(seq []int, blank int) []int {
	out := make([]int, 2*len(seq)+1)
	for i := range out {
		out[i] = blank
	}
	for i, id := range seq {
		out[2*i+1] = id
	}
	return out
}

func collapseWhitespace(s string) string { return whitespaceRe.ReplaceAllString(s, " ") }

func toASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func expandAbbreviations(s string) string {
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.full)
	}
	return s
}

func expandNumbers(s string) string {
	return numberRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m)
		if err != nil || n >= 1_000_000_000 {
			digits := make([]string, 0, len(m))
			for _, d := range m {
				digits = append(digits, ones[d-'0'])
			}
			return strings.Join(digits, " ")
		}
		return numberToWords(n)
	})
}

func numberToWords(n int) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	case n < 1000:
		return joinScale(n/100, "hundred", n%100)
	case n < 1_000_000:
		return joinScale(n/1000, "thousand", n%1000)
	default:
		return joinScale(n/1_000_000, "million", n%1_000_000)
	}
}

func joinScale(head int, scale string, rest int) string {
	s := numberToWords(head) + " " + scale
	if rest > 0 {
		s += " " + numberToWords(rest)
	}
	return s
}
