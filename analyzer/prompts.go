package analyzer

import (
	"fmt"
	"strings"
)

func summaryPrompt(minWords, maxWords int, content string) string {
	return fmt.Sprintf(`Summarize the following news article in at least %d words but no more than %d words.
The summary should cover the key points and maintain the tone of the original article.
Respond with the summary text only.

Article: %s

Summary:`, minWords, maxWords, content)
}

func labelPrompt(kind string, vocab []string, catchAll string, content string) string {
	options := append([]string{}, vocab...)
	hasCatchAll := false
	for _, v := range options {
		if v == catchAll {
			hasCatchAll = true
			break
		}
	}
	if !hasCatchAll {
		options = append(options, catchAll)
	}
	return fmt.Sprintf(`Classify the following news article into exactly one %s label.
Allowed labels: %s.
Respond with one label from the list, spelled exactly as shown, and nothing else.

Article: %s

Label:`, kind, strings.Join(options, ", "), content)
}

func relevancePrompt(brand string, content string) string {
	return fmt.Sprintf(`Is the following article substantive business news about the brand %q,
rather than an incidental mention? Answer with a single word: yes or no.

Article: %s

Answer:`, brand, content)
}

func sentimentPrompt(content string) string {
	return fmt.Sprintf(`What is the overall sentiment of the following news article?
Answer with exactly one word: Positive, Neutral or Negative.

Article: %s

Sentiment:`, content)
}
