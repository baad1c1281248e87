package seo

import (
	"fmt"

	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/processing/suggestions"
)

const categoryPrompt = "Based on the following blog post title and content, generate %d SEO-optimized categories. " +
	"The categories should be broad, descriptive, and relevant to the post's topic. Do not include numbers. " +
	"Provide the results in the following JSON format:\n\n" +
	"{\n  \"categories\": [\"Category1\", \"Category2\", \"Category3\"]\n}\n\n" +
	"Title: \"%s\"\n\nContent: \"%s\"\n\nExcerpt: \"%s\""

const tagPrompt = "Based on the following blog post title and content, generate %d SEO-optimized tags. " +
	"The tags should be specific, relevant, and descriptive keywords that reflect the main topics of the post. " +
	"Do not include numbers. Provide the results in the following JSON format:\n\n" +
	"{\n  \"tags\": [\"Tag1\", \"Tag2\", \"Tag3\", \"Tag4\", \"Tag5\"]\n}\n\n" +
	"Title: \"%s\"\n\nContent: \"%s\"\n\nExcerpt: \"%s\""

// Prompt builds the request for n suggestions of field for item.
func Prompt(field string, item content.Item, n int) string {
	template := tagPrompt
	if field == suggestions.FieldCategories {
		template = categoryPrompt
	}
	return fmt.Sprintf(template, n, item.Title, item.Content, item.Excerpt)
}
