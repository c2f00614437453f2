package handler

import "github.com/gofiber/fiber/v2"

// indexHTML is the minimal submit page. The real presentation layer is out
// of scope; this page exists so the service is usable from a browser.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>OCR API</title>
</head>
<body>
  <h1>OCR API</h1>
  <form action="/upload" method="post" enctype="multipart/form-data">
    <p><input type="file" name="file" accept="image/*,.pdf" required /></p>
    <p>
      <select name="intent">
        <option value="Convert the document to markdown.">Document to Markdown</option>
        <option value="OCR this image.">General OCR</option>
        <option value="Free OCR.">Free OCR (no layout)</option>
        <option value="Parse the figure.">Parse Figure</option>
        <option value="Describe this image in detail.">Detailed Description</option>
      </select>
    </p>
    <p><button type="submit">Process</button></p>
  </form>
  <p><a href="/results">Results</a> · <a href="/stats">Usage</a> · <a href="/docs">API docs</a></p>
</body>
</html>`

// IndexPage serves the submit page.
func IndexPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").SendString(indexHTML)
	}
}
