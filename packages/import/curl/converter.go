// Package curl converts curl commands into hitdesk requests.
package curl

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

// Converter converts curl commands to hitdesk requests.
type Converter struct {
	splitQuery bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithSplitQuery moves the URL query string into separate query parameters.
func WithSplitQuery(split bool) Option {
	return func(c *Converter) {
		c.splitQuery = split
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		splitQuery: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method          string
	URL             string
	Headers         []model.KeyValue
	Cookies         []model.KeyValue
	Data            []string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	DataAsQuery     bool
	Name            string
}

// ConvertCommand converts a single curl command to a request.
func (c *Converter) ConvertCommand(curlCmd string) (*model.Request, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToRequest(parsed), nil
}

// ConvertFile converts a file of curl commands into a collection named after
// the file. Commands may span lines with trailing backslashes; blank lines and
// # comments are skipped.
func (c *Converter) ConvertFile(path string) (*model.Collection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(baseName(path), ".sh")
	return c.ConvertReader(file, name)
}

// ConvertReader is ConvertFile over any reader.
func (c *Converter) ConvertReader(r io.Reader, name string) (*model.Collection, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Handle line continuations
		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	collection := model.NewCollection(name)
	for i, cmd := range commands {
		req, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		collection.Requests = append(collection.Requests, req)
	}

	return collection, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{}

	curlCmd = strings.TrimSpace(curlCmd)

	if strings.HasPrefix(curlCmd, "curl ") {
		curlCmd = strings.TrimPrefix(curlCmd, "curl ")
	} else if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}

	tokens := tokenize(curlCmd)

	value := func(i int) (string, error) {
		if i+1 < len(tokens) {
			return tokens[i+1], nil
		}
		return "", fmt.Errorf("missing value for %s", tokens[i])
	}

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if kv, ok := model.ParseKeyValue(v, ":"); ok {
				if strings.EqualFold(kv.Key, "Cookie") {
					parsed.Cookies = append(parsed.Cookies, parseCookies(kv.Value)...)
				} else {
					parsed.Headers = append(parsed.Headers, kv)
				}
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, v)
			i += 2

		case "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, v)
			parsed.Headers = append(parsed.Headers,
				model.KeyValue{Key: "Content-Type", Value: "application/json", Enabled: true},
				model.KeyValue{Key: "Accept", Value: "application/json", Enabled: true},
			)
			i += 2

		case "-G", "--get":
			parsed.DataAsQuery = true
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-k", "--insecure":
			parsed.Insecure = true
			i++

		case "-L", "--location":
			parsed.FollowRedirects = true
			i++

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, model.KeyValue{Key: "User-Agent", Value: v, Enabled: true})
			i += 2

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, model.KeyValue{Key: "Referer", Value: v, Enabled: true})
			i += 2

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Cookies = append(parsed.Cookies, parseCookies(v)...)
			i += 2

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i += 2

		default:
			switch {
			case strings.HasPrefix(token, "-"):
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
			default:
				if parsed.URL == "" && isURL(token) {
					parsed.URL = token
				}
				i++
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if parsed.Method == "" {
		parsed.Method = "GET"
		if len(parsed.Data) > 0 && !parsed.DataAsQuery {
			parsed.Method = "POST"
		}
	}

	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

// ToRequest converts a ParsedCurl to a request.
func (c *Converter) ToRequest(parsed *ParsedCurl) *model.Request {
	req := model.NewRequest(parsed.Name, parsed.Method, parsed.URL)
	req.ID = model.NewID()
	req.Headers = parsed.Headers
	req.Cookies = parsed.Cookies

	if c.splitQuery {
		req.URL, req.QueryParams = splitQuery(parsed.URL)
	}

	if parsed.DataAsQuery {
		for _, d := range parsed.Data {
			for _, pair := range strings.Split(d, "&") {
				key, val, _ := strings.Cut(pair, "=")
				req.AddQueryParam(key, val)
			}
		}
	} else if len(parsed.Data) > 0 {
		req.Body = strings.Join(parsed.Data, "&")
	}

	if parsed.BasicAuth != "" {
		user, pass, _ := strings.Cut(parsed.BasicAuth, ":")
		req.Auth = model.Auth{Type: model.AuthBasic, Username: user, Password: pass}
	} else {
		liftBearer(req)
	}

	return req
}

// liftBearer turns an "Authorization: Bearer x" header into bearer auth.
func liftBearer(req *model.Request) {
	for i, h := range req.Headers {
		if !strings.EqualFold(h.Key, "Authorization") {
			continue
		}
		scheme, token, ok := strings.Cut(h.Value, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return
		}
		req.Auth = model.Auth{Type: model.AuthBearer, Token: strings.TrimSpace(token)}
		req.Headers = append(req.Headers[:i], req.Headers[i+1:]...)
		return
	}
}

// splitQuery separates the query string of rawURL into ordered parameters.
// Values stay percent-decoded as the user would type them.
func splitQuery(rawURL string) (string, []model.KeyValue) {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL, nil
	}
	query, fragment, hasFragment := strings.Cut(query, "#")
	if hasFragment {
		base += "#" + fragment
	}

	var params []model.KeyValue
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(val); err == nil {
			val = v
		}
		params = append(params, model.KeyValue{Key: key, Value: val, Enabled: true})
	}
	return base, params
}

func parseCookies(s string) []model.KeyValue {
	var cookies []model.KeyValue
	for _, part := range strings.Split(s, ";") {
		if kv, ok := model.ParseKeyValue(part, "="); ok {
			cookies = append(cookies, kv)
		}
	}
	return cookies
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			// backslash-newline is a line continuation
			if r != '\n' && r != '\r' {
				current.WriteRune(r)
			}
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n', '\r':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName builds a request name from the method and URL path. Names
// never contain slashes so they stay addressable by collection path.
func generateName(url, method string) string {
	matches := urlPathPattern.FindStringSubmatch(url)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
