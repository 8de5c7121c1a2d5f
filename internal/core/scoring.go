package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// ScoringEngine computes the six-factor quality score from text alone.
// It is stateless, deterministic and makes no external calls, so it is safe
// to share across concurrent workflow runs.
type ScoringEngine struct {
	stopWords map[string]struct{}
}

var (
	wordRE     = regexp.MustCompile(`\b[a-zA-Z]+\b`)
	sentenceRE = regexp.MustCompile(`[.!?]+`)
	headingRE  = regexp.MustCompile(`\n[A-Z][^.\n]*\n`)
	listRE     = regexp.MustCompile(`(?m)^\s*[-*\d+.]\s+`)
	emphasisRE = regexp.MustCompile(`\*\*.*?\*\*|__.*?__|_.*?_|\*.*?\*`)

	ctaREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bshare\b`),
		regexp.MustCompile(`(?i)\bcomment\b`),
		regexp.MustCompile(`(?i)\bsubscribe\b`),
		regexp.MustCompile(`(?i)\bfollow\b`),
		regexp.MustCompile(`(?i)\btry\b`),
		regexp.MustCompile(`(?i)\bstart\b`),
		regexp.MustCompile(`(?i)\blearn more\b`),
		regexp.MustCompile(`(?i)\bclick here\b`),
	}

	personalPronounREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\byou\b`),
		regexp.MustCompile(`(?i)\byour\b`),
		regexp.MustCompile(`(?i)\bwe\b`),
		regexp.MustCompile(`(?i)\bour\b`),
		regexp.MustCompile(`(?i)\bus\b`),
		regexp.MustCompile(`(?i)\bi\b`),
		regexp.MustCompile(`(?i)\bmy\b`),
	}

	positiveWords = []string{
		"amazing", "excellent", "fantastic", "great", "wonderful",
		"inspiring", "motivating", "exciting", "incredible", "outstanding",
	}
	negativeWords = []string{
		"problem", "challenge", "difficult", "struggle", "issue",
		"mistake", "error", "failure", "wrong", "bad",
	}
)

func NewScoringEngine() *ScoringEngine {
	stop := map[string]struct{}{}
	for _, w := range strings.Fields(
		"the a an and or but in on at to for of with by is are was were be been being " +
			"have has had do does did will would could should may might must can " +
			"this that these those i you he she it we they") {
		stop[w] = struct{}{}
	}
	return &ScoringEngine{stopWords: stop}
}

// CalculateComprehensiveScore scores content against an optional profile and
// derives actionable recommendations. Every sub-score and the overall score
// lie in [0,100].
func (e *ScoringEngine) CalculateComprehensiveScore(content string, profile *UserProfile) ScoreResult {
	breakdown := ScoreBreakdown{
		KeywordRelevance:     e.keywordRelevanceScore(content, profile),
		Readability:          e.readabilityScore(content, profile),
		UserProfileAlignment: e.profileAlignmentScore(content, profile),
		ContentStructure:     e.contentStructureScore(content),
		SEOOptimization:      e.seoScore(content),
		EngagementPotential:  e.engagementScore(content),
	}
	return ScoreResult{
		OverallScore:    round2(breakdown.Overall()),
		Breakdown:       breakdown,
		Recommendations: e.recommendations(breakdown, content, profile),
		Timestamp:       time.Now().UTC(),
	}
}

func (e *ScoringEngine) keywordRelevanceScore(content string, profile *UserProfile) float64 {
	words := e.extractWords(content)
	if len(words) == 0 {
		return 0
	}

	keywords := potentialKeywords(words)
	density := float64(len(keywords)) / float64(len(words)) * 100
	densityScore := clamp(100*(1-math.Abs(density-2)/10), 0, 100)

	unique := map[string]struct{}{}
	for _, kw := range keywords {
		unique[kw] = struct{}{}
	}
	varietyScore := math.Min(100, float64(len(unique))*5)

	// Neutral when the profile gives us nothing to match against.
	profileRelevance := 50.0
	if profile != nil && len(profile.PreferredTopics) > 0 {
		lower := strings.ToLower(content)
		matches := 0
		for _, topic := range profile.PreferredTopics {
			if strings.Contains(lower, strings.ToLower(topic)) {
				matches++
			}
		}
		profileRelevance = math.Min(100, float64(matches)*25)
	}

	return round2(densityScore*0.4 + varietyScore*0.35 + profileRelevance*0.25)
}

func (e *ScoringEngine) readabilityScore(content string, profile *UserProfile) float64 {
	sentences := countSentences(content)
	words := e.extractWords(content)
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	avgSentenceLen := float64(len(words)) / float64(sentences)
	avgSyllables := float64(syllables) / float64(len(words))

	// Flesch Reading Ease, clamped into the score range.
	flesch := clamp(206.835-1.015*avgSentenceLen-84.6*avgSyllables, 0, 100)

	paragraphScore := e.paragraphStructureScore(content)
	punctuationScore := e.punctuationScore(content, len(words))
	wordLengthScore := wordComplexityScore(words)

	adjustment := 0.0
	if profile != nil {
		switch profile.ReadingLevel {
		case ReadingBeginner:
			if flesch < 60 {
				adjustment = (60 - flesch) * 0.5
			}
		case ReadingAdvanced:
			if flesch > 40 {
				adjustment = (flesch - 40) * 0.3
			}
		}
	}

	score := flesch*0.5 + paragraphScore*0.2 + punctuationScore*0.15 + wordLengthScore*0.15 + adjustment
	return round2(clamp(score, 0, 100))
}

func (e *ScoringEngine) profileAlignmentScore(content string, profile *UserProfile) float64 {
	if profile == nil {
		return 50
	}

	lower := strings.ToLower(content)
	var scores []float64

	if len(profile.PreferredTopics) > 0 {
		matches := 0
		for _, topic := range profile.PreferredTopics {
			if strings.Contains(lower, strings.ToLower(topic)) {
				matches++
			}
		}
		scores = append(scores, math.Min(100, float64(matches)/float64(len(profile.PreferredTopics))*100))
	}

	scores = append(scores, styleAlignmentScore(lower, profile.WritingStyle))

	if len(profile.ExpertiseAreas) > 0 {
		matches := 0
		for _, area := range profile.ExpertiseAreas {
			if strings.Contains(lower, strings.ToLower(area)) {
				matches++
			}
		}
		scores = append(scores, math.Min(100, float64(matches)/float64(len(profile.ExpertiseAreas))*100))
	}

	if profile.TargetAudience != "" {
		scores = append(scores, audienceAlignmentScore(lower, profile.TargetAudience))
	}

	return round2(mean(scores))
}

func (e *ScoringEngine) contentStructureScore(content string) float64 {
	var scores []float64

	paragraphCount := 0
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphCount++
		}
	}
	switch {
	case paragraphCount >= 3 && paragraphCount <= 8:
		scores = append(scores, 100)
	case paragraphCount < 3:
		scores = append(scores, math.Max(0, float64(paragraphCount)*33.3))
	default:
		scores = append(scores, math.Max(0, 100-float64(paragraphCount-8)*10))
	}

	var sentenceLengths []int
	for _, s := range sentenceRE.Split(content, -1) {
		if strings.TrimSpace(s) != "" {
			sentenceLengths = append(sentenceLengths, len(strings.Fields(s)))
		}
	}
	if len(sentenceLengths) > 0 {
		total := 0
		distinct := map[int]struct{}{}
		for _, l := range sentenceLengths {
			total += l
			distinct[l] = struct{}{}
		}
		avg := float64(total) / float64(len(sentenceLengths))
		scores = append(scores, clamp(100*(1-math.Abs(avg-20)/20), 0, 100))
		scores = append(scores, float64(len(distinct))/float64(len(sentenceLengths))*100)
	}

	headings := len(headingRE.FindAllString(content, -1))
	scores = append(scores, math.Min(100, float64(headings)*25))

	return round2(mean(scores))
}

func (e *ScoringEngine) seoScore(content string) float64 {
	var scores []float64

	wordCount := len(e.extractWords(content))
	switch {
	case wordCount >= 800 && wordCount <= 2000:
		scores = append(scores, 100)
	case wordCount < 800:
		scores = append(scores, float64(wordCount)/800*100)
	default:
		scores = append(scores, math.Max(0, 100-float64(wordCount-2000)/100))
	}

	keywords := potentialKeywords(e.extractWords(content))
	density := float64(len(keywords)) / math.Max(1, float64(wordCount)) * 100
	if density >= 1 && density <= 3 {
		scores = append(scores, 100)
	} else {
		scores = append(scores, math.Max(0, 100-math.Abs(density-2)*25))
	}

	firstLine := strings.SplitN(content, "\n", 2)[0]
	hasTitle := len(firstLine) >= 10 && len(firstLine) <= 60
	hasIntro := strings.Contains(content, "\n\n") && len(strings.SplitN(content, "\n\n", 2)[0]) > 100
	lower := strings.ToLower(content)
	hasConclusion := strings.Contains(lower, "conclusion") || strings.Contains(lower, "summary")
	scores = append(scores, float64(countTrue(hasTitle, hasIntro, hasConclusion))*33.3)

	hasLists := listRE.MatchString(content)
	hasEmphasis := emphasisRE.MatchString(content)
	scores = append(scores, float64(countTrue(hasLists, hasEmphasis))*50)

	return round2(mean(scores))
}

func (e *ScoringEngine) engagementScore(content string) float64 {
	var scores []float64

	wordCount := len(e.extractWords(content))
	questions := strings.Count(content, "?")
	questionRatio := float64(questions) / math.Max(1, float64(wordCount)/100)
	scores = append(scores, math.Min(100, questionRatio*50))

	ctaCount := 0
	for _, re := range ctaREs {
		ctaCount += len(re.FindAllString(content, -1))
	}
	scores = append(scores, math.Min(100, float64(ctaCount)*25))

	lower := strings.ToLower(content)
	emotional := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			emotional++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			emotional++
		}
	}
	scores = append(scores, math.Min(100, float64(emotional)*10))

	pronouns := 0
	for _, re := range personalPronounREs {
		pronouns += len(re.FindAllString(content, -1))
	}
	scores = append(scores, math.Min(100, float64(pronouns)*5))

	return round2(mean(scores))
}

// extractWords lowercases alphabetic tokens and drops stop words.
func (e *ScoringEngine) extractWords(text string) []string {
	var words []string
	for _, w := range wordRE.FindAllString(strings.ToLower(text), -1) {
		if _, stop := e.stopWords[w]; !stop {
			words = append(words, w)
		}
	}
	return words
}

// potentialKeywords keeps pool words longer than three characters.
func potentialKeywords(words []string) []string {
	var kws []string
	for _, w := range words {
		if len(w) > 3 {
			kws = append(kws, w)
		}
	}
	return kws
}

func countSentences(text string) int {
	n := 0
	for _, s := range sentenceRE.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// countSyllables estimates syllables as vowel-group transitions, dropping a
// trailing silent "e" when more than one group was seen. Never below 1.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}

func (e *ScoringEngine) paragraphStructureScore(content string) float64 {
	var scores []float64
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sentences := countSentences(p)
		switch {
		case sentences >= 3 && sentences <= 8:
			scores = append(scores, 100)
		case sentences < 3:
			scores = append(scores, float64(sentences)*33.3)
		default:
			scores = append(scores, math.Max(0, 100-float64(sentences-8)*10))
		}
	}
	if len(scores) == 0 {
		return 0
	}
	return mean(scores)
}

func (e *ScoringEngine) punctuationScore(content string, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	punct := 0
	for _, mark := range []string{".", ",", ";", ":", "!", "?"} {
		punct += strings.Count(content, mark)
	}
	ratio := float64(punct) / float64(wordCount)
	switch {
	case ratio >= 0.1 && ratio <= 0.3:
		return 100
	case ratio < 0.1:
		return ratio / 0.1 * 100
	default:
		return math.Max(0, 100-(ratio-0.3)*200)
	}
}

func wordComplexityScore(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len(w)
	}
	avg := float64(total) / float64(len(words))
	switch {
	case avg >= 4 && avg <= 7:
		return 100
	case avg < 4:
		return avg / 4 * 100
	default:
		return math.Max(0, 100-(avg-7)*20)
	}
}

func styleAlignmentScore(lowerContent, style string) float64 {
	countOf := func(indicators ...string) int {
		n := 0
		for _, ind := range indicators {
			if strings.Contains(lowerContent, ind) {
				n++
			}
		}
		return n
	}

	switch style {
	case StyleFormal:
		formal := countOf("therefore", "furthermore", "however", "moreover", "consequently")
		informal := countOf("don't", "won't", "can't", "it's", "we're")
		return math.Max(0, float64(50+formal*10-informal*5))
	case StyleCasual:
		casual := countOf("don't", "won't", "can't", "it's", "we're", "you'll", "i'll")
		formal := countOf("therefore", "furthermore", "however", "moreover")
		return math.Max(0, float64(50+casual*8-formal*5))
	case StyleTechnical:
		tech := countOf("algorithm", "implementation", "methodology", "analysis", "optimization")
		return math.Min(100, float64(50+tech*15))
	case StyleCreative:
		creative := countOf("imagine", "picture", "story", "metaphor", "analogy")
		return math.Min(100, float64(50+creative*12))
	}
	return 50
}

// audienceKeywords maps the five audience archetypes to their indicator
// vocabularies.
var audienceKeywords = []struct {
	audience string
	keywords []string
}{
	{"beginner", []string{"learn", "start", "basic", "simple", "easy", "introduction"}},
	{"professional", []string{"strategy", "business", "professional", "industry", "market"}},
	{"technical", []string{"technical", "system", "implementation", "configuration", "development"}},
	{"academic", []string{"research", "study", "analysis", "theory", "methodology"}},
	{"general", []string{"help", "guide", "tips", "advice", "useful"}},
}

func audienceAlignmentScore(lowerContent, targetAudience string) float64 {
	target := strings.ToLower(targetAudience)
	best := 0.0
	for _, entry := range audienceKeywords {
		matches := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lowerContent, kw) {
				matches++
			}
		}
		score := math.Min(100, float64(matches)*20)
		if strings.Contains(entry.audience, target) {
			best = math.Max(best, score)
		} else if entry.audience == "general" {
			// Generic vocabulary counts for any audience, discounted.
			best = math.Max(best, score*0.7)
		}
	}
	return best
}

// recommendations derives up to eight templated suggestions, gated on
// sub-scores below 60, in factor declaration order.
func (e *ScoringEngine) recommendations(b ScoreBreakdown, content string, profile *UserProfile) []string {
	var recs []string

	if b.KeywordRelevance < 60 {
		recs = append(recs, "Consider adding more relevant keywords related to your main topic")
		if profile != nil && len(profile.PreferredTopics) > 0 {
			topics := profile.PreferredTopics
			if len(topics) > 3 {
				topics = topics[:3]
			}
			recs = append(recs, fmt.Sprintf("Include keywords related to: %s", strings.Join(topics, ", ")))
		}
	}
	if b.Readability < 60 {
		recs = append(recs,
			"Improve readability by using shorter sentences and simpler words",
			"Break up long paragraphs into smaller, more digestible chunks")
	}
	if b.ContentStructure < 60 {
		recs = append(recs,
			"Improve content structure with clear headings and logical flow",
			"Ensure paragraphs are 3-8 sentences long for optimal readability")
	}
	if b.SEOOptimization < 60 {
		if len(e.extractWords(content)) < 800 {
			recs = append(recs, "Consider expanding content to 800-2000 words for better SEO")
		}
		recs = append(recs, "Add meta descriptions, headings, and optimize keyword density")
	}
	if b.EngagementPotential < 60 {
		recs = append(recs,
			"Add questions to encourage reader engagement",
			"Include calls-to-action to drive user interaction",
			"Use more personal pronouns (you, we, us) to connect with readers")
	}
	if profile != nil && b.UserProfileAlignment < 60 {
		switch profile.WritingStyle {
		case StyleFormal:
			recs = append(recs, "Use more formal language and avoid contractions")
		case StyleCasual:
			recs = append(recs, "Adopt a more conversational tone with contractions and informal language")
		}
		switch profile.ReadingLevel {
		case ReadingBeginner:
			recs = append(recs, "Simplify vocabulary and explain technical terms")
		case ReadingAdvanced:
			recs = append(recs, "Include more sophisticated vocabulary and complex concepts")
		}
	}

	if len(recs) > 8 {
		recs = recs[:8]
	}
	return recs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 50
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
