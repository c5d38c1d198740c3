package services

import (
	"strings"

	"qiita-editor/pkg/models"
)

const tagSeparator = ", "

// ParseBuffer splits buffer text into its three zones: the title on the
// first line, comma-separated tags on the second, and the body verbatim.
func ParseBuffer(text string) (title string, tags []models.Tag, body string) {
	lines := strings.SplitN(text, "\n", 3)
	title = strings.TrimSuffix(lines[0], "\r")
	if len(lines) > 1 {
		tags = ParseTags(lines[1])
	}
	if len(lines) > 2 {
		body = lines[2]
	}
	return title, tags, body
}

func ParseTags(line string) []models.Tag {
	tags := []models.Tag{}
	for _, name := range strings.Split(line, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tags = append(tags, models.Tag{Name: name})
	}
	return tags
}

func JoinTags(tags []models.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, tagSeparator)
}

// RenderItem returns the chunks appended to a fresh buffer for an article.
// ParseBuffer reads the result back into the same fields.
func RenderItem(article *models.Article) []string {
	return []string{
		article.Title + "\n",
		JoinTags(article.Tags) + "\n",
		article.RawBody,
	}
}

func ProjectEntry(article *models.Article) models.ListEntry {
	return models.ListEntry{
		Title:  article.Title,
		Detail: "更新：" + article.UpdatedAtInWords + " タグ：" + JoinTags(article.Tags),
	}
}
