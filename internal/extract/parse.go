package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"receipts/internal/core"
)

// Parsed is the structured guess extracted from receipt text. Zero-valued
// fields mean the heuristic found nothing; the caller treats every field as
// a prefill suggestion, never as validated input.
type Parsed struct {
	StoreName string        `json:"storeName,omitempty"`
	Amount    int64         `json:"amount,omitempty"`
	Date      time.Time     `json:"date"`
	Items     []string      `json:"items"`
	Category  core.Category `json:"category"`
}

var (
	storePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(.+?)(?:점|마트|마켓|스토어|샵)`),
		regexp.MustCompile(`^(.+?)(?:본점|지점)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`),
		regexp.MustCompile(`(\d{2})[-./](\d{1,2})[-./](\d{1,2})`),
	}
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:합계|총액|total|계)\s*[:\s]*([0-9,]+)원?`),
		regexp.MustCompile(`(?i)([0-9,]+)원?\s*(?:합계|총액|total)`),
	}
	itemPattern    = regexp.MustCompile(`(.+?)\s+([0-9,]+)원`)
	nonItemPattern = regexp.MustCompile(`(?i)합계|총액|total|카드|현금|결제`)
)

// categoryKeywords maps store-name and item keywords to the canonical
// category set.
var categoryKeywords = []struct {
	category core.Category
	keywords []string
}{
	{core.CategoryFood, []string{
		"마트", "마켓", "슈퍼", "우유", "계란", "빵", "과일", "채소", "육류", "생선",
		"레스토랑", "카페", "치킨", "피자", "버거", "커피", "음료",
	}},
	{core.CategoryTransport, []string{"주유소", "gs칼텍스", "sk에너지", "현대오일뱅크", "버스", "지하철", "택시"}},
	{core.CategoryShopping, []string{"백화점", "아울렛", "의류", "신발", "가방", "화장품"}},
	{core.CategoryMedical, []string{"병원", "약국", "클리닉", "한의원"}},
	{core.CategoryCulture, []string{"영화관", "서점", "박물관", "공연"}},
}

// Parse runs the line-based heuristics over receipt text.
func Parse(text string) Parsed {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	p := Parsed{Items: []string{}}
	p.StoreName = findStore(lines)
	p.Date = findDate(lines)
	p.Amount = findAmount(lines)
	for _, line := range lines {
		if nonItemPattern.MatchString(line) {
			continue
		}
		if m := itemPattern.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				p.Items = append(p.Items, name)
			}
		}
	}
	p.Category = GuessCategory(p.StoreName, p.Items)
	return p
}

// The store name is expected near the top of the receipt.
func findStore(lines []string) string {
	top := lines
	if len(top) > 3 {
		top = top[:3]
	}
	for _, line := range top {
		for _, pat := range storePatterns {
			if m := pat.FindStringSubmatch(line); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	return ""
}

func findDate(lines []string) time.Time {
	for _, line := range lines {
		for _, pat := range datePatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			year, _ := strconv.Atoi(m[1])
			if len(m[1]) == 2 {
				year += 2000
			}
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if month < 1 || month > 12 || day < 1 || day > 31 {
				continue
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

func findAmount(lines []string) int64 {
	for _, line := range lines {
		for _, pat := range amountPatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// GuessCategory picks a category from store-name and item keywords,
// defaulting to 기타.
func GuessCategory(storeName string, items []string) core.Category {
	text := strings.ToLower(storeName + " " + strings.Join(items, " "))
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.category
			}
		}
	}
	return core.CategoryOther
}
