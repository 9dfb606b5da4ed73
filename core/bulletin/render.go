package bulletin

import (
	"archive/zip"
	"bytes"
	"embed"
	"html/template"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const templateName = "bulletin.html"

var (
	//go:embed templates
	templateFS embed.FS

	bulletinTemplate = template.Must(
		template.New(templateName).
			Funcs(template.FuncMap{"grade": formatGrade, "date": formatDate}).
			ParseFS(templateFS, "templates/"+templateName),
	)

	unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
)

// Render writes the HTML document of b to w.
func Render(w io.Writer, b Bulletin) error {
	if err := bulletinTemplate.Execute(w, b); err != nil {
		return errors.Wrap(err, "executing bulletin template")
	}
	return nil
}

// FileName returns the archive entry name of b: LASTNAME_Firstname_id.html
func FileName(b Bulletin) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{strings.ToUpper(b.Student.LastName), b.Student.FirstName, b.Student.ID} {
		if p = sanitize(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_") + ".html"
}

// ArchiveName returns the name of the ZIP holding the bulletins of period.
func ArchiveName(period string) string {
	return "bulletins_" + sanitize(period) + ".zip"
}

func sanitize(s string) string {
	return strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
}

// formatGrade prints a grade with a decimal comma, or "-" when absent.
func formatGrade(avg null.Float64) string {
	if !avg.Valid {
		return "-"
	}
	return strings.Replace(strconv.FormatFloat(avg.Float64, 'f', 2, 64), ".", ",", 1)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

type archiveFile struct {
	name    string
	content []byte
}

// uniqueNames suffixes the names that already appeared earlier in files: X.html, X-2.html, X-3.html.
func uniqueNames(files []archiveFile) {
	used := make(map[string]bool, len(files))
	for i := range files {
		name := files[i].name
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for n := 2; used[name]; n++ {
			name = base + "-" + strconv.Itoa(n) + ext
		}
		used[name] = true
		files[i].name = name
	}
}

// bundle zips files, sorted by name. Colliding names are made unique first, in the given order.
func bundle(files []archiveFile, modified time.Time) ([]byte, error) {
	uniqueNames(files)
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "adding %s to archive", f.name)
		}
		if _, err = w.Write(f.content); err != nil {
			return nil, errors.Wrapf(err, "writing %s to archive", f.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing archive")
	}
	return buf.Bytes(), nil
}
