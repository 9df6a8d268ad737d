package summarizer

import (
	"fmt"
	"strings"

	"commutecast/internal/domain/entity"
	"commutecast/internal/usecase/episode"
	"commutecast/internal/utils/text"
)

const systemPrompt = "You are a professional news summarizer who writes scripts for a daily commute podcast."

// articleCorpus renders the numbered article list. It returns ErrEmptyInput when
// no article has any text at all.
func articleCorpus(articles []episode.ArticleInput, maxChars int) (string, error) {
	var b strings.Builder
	n := 0
	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		content := strings.TrimSpace(a.Content)
		if title == "" && content == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s", n, title)
		if a.Source != "" {
			fmt.Fprintf(&b, " (%s)", a.Source)
		}
		b.WriteString("\n")
		if content != "" && content != title {
			b.WriteString(content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if n == 0 {
		return "", ErrEmptyInput
	}
	return text.Truncate(strings.TrimSpace(b.String()), maxChars, "\n[remaining articles truncated]"), nil
}

// wordTarget returns the lower and upper word bounds for the script.
// Without a requested length the script aims for 300-400 words.
func wordTarget(minutes int) (int, int) {
	if minutes <= 0 {
		return 300, 400
	}
	upper := text.WordsForMinutes(minutes)
	lower := upper * 4 / 5
	return lower, upper
}

// buildPrompt constructs the user prompt for one episode.
func buildPrompt(req episode.ScriptRequest, maxChars int) (string, error) {
	corpus, err := articleCorpus(req.Articles, maxChars)
	if err != nil {
		return "", err
	}

	lower, upper := wordTarget(req.EpisodeMinutes)

	var b strings.Builder
	b.WriteString("Summarize the following articles into a cohesive, engaging narrative that works as a podcast script. ")
	fmt.Fprintf(&b, "Make it conversational and around %d-%d words", lower, upper)
	if req.EpisodeMinutes > 0 {
		fmt.Fprintf(&b, " so it lasts about %d minutes when read aloud", req.EpisodeMinutes)
	}
	b.WriteString(". Include key facts but keep the tone engaging and accessible.\n")
	if topics := joinTopics(req.Topics); topics != "" {
		fmt.Fprintf(&b, "The listener asked to hear about: %s.\n", topics)
	}
	b.WriteString("Start with a brief welcome, go through the stories naturally, and end with a short sign-off. ")
	b.WriteString("Return only the words to be spoken, without headings or stage directions.\n\n")
	b.WriteString("Articles:\n")
	b.WriteString(corpus)

	return b.String(), nil
}

func joinTopics(topics []entity.Topic) string {
	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		if s := strings.TrimSpace(string(t)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
