package comments

// QuoteReply renders the draft a reply starts from: the author's name
// followed by the quoted comment text.
func QuoteReply(author, text string) string {
	return author + ":<blockquote>" + text + "</blockquote>\n"
}
