package epub

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/htmlutil"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/mediafile"
)

type OPF struct {
	Title       string
	Authors     []string
	Date        string
	Publisher   string
	Identifiers []mediafile.ParsedIdentifier
	// ContentFiles are the archive paths of the XHTML documents in reading order.
	ContentFiles []string
}

type Package struct {
	XMLName          xml.Name `xml:"package"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         struct {
		Title []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Publisher  string `xml:"publisher"`
		Identifier []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Scheme string `xml:"scheme,attr"`
		} `xml:"identifier"`
		Date []string `xml:"date"`
		Meta []struct {
			Text     string `xml:",chardata"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Item []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemref []struct {
			Idref string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Parse reads Dublin Core title, creator, date and identifiers from an EPUB. When
// the identifiers carry no ISBN, the content documents are scanned in reading
// order and the first ISBN printed in them is used.
func Parse(epubPath string) (*mediafile.EmbeddedMetadata, error) {
	zipReader, err := zip.OpenReader(epubPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer zipReader.Close()

	files := make(map[string]*zip.File, len(zipReader.File))
	var opf *OPF
	for _, file := range zipReader.File {
		files[file.Name] = file
		if opf == nil && path.Ext(file.Name) == ".opf" {
			r, err := file.Open()
			if err != nil {
				return nil, errors.WithStack(err)
			}
			opf, err = ParseOPF(file.Name, r)
			if err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}

	if opf == nil {
		return nil, errors.New("no opf file found")
	}

	meta := &mediafile.EmbeddedMetadata{DataSource: mediafile.DataSourceEPUBMetadata}
	if opf.Title != "" {
		meta.Title = &opf.Title
	}
	if len(opf.Authors) > 0 {
		meta.Author = &opf.Authors[0]
	}
	if opf.Date != "" {
		meta.Date = &opf.Date
	}

	if isbn := opf.ISBN(); isbn != "" {
		meta.ISBN = &isbn
		return meta, nil
	}

	for _, name := range opf.ContentFiles {
		file, ok := files[name]
		if !ok {
			continue
		}
		text, err := readText(file)
		if err != nil {
			// One bad chapter should not hide an ISBN in the next one.
			continue
		}
		if isbn, ok := identifiers.FromText(text); ok {
			meta.ISBN = &isbn
			break
		}
	}

	return meta, nil
}

func readText(file *zip.File) (string, error) {
	r, err := file.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer r.Close()
	return htmlutil.Text(r)
}

// ISBN returns the first ISBN-13 identifier, else the first ISBN-10, else "".
func (o *OPF) ISBN() string {
	isbn10 := ""
	for _, id := range o.Identifiers {
		switch identifiers.Type(id.Type) {
		case identifiers.TypeISBN13:
			return id.Value
		case identifiers.TypeISBN10:
			if isbn10 == "" {
				isbn10 = id.Value
			}
		}
	}
	return isbn10
}

func ParseOPF(filename string, r io.ReadCloser) (*OPF, error) {
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pkg := &Package{}
	err = xml.Unmarshal(b, pkg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Manifest hrefs are relative to the OPF file's directory.
	basePath := path.Dir(filename)
	if basePath == "." {
		basePath = ""
	} else {
		basePath += "/"
	}

	metaProperties := map[string]map[string]string{}
	for _, m := range pkg.Metadata.Meta {
		if m.Refines != "" {
			key := strings.TrimPrefix(m.Refines, "#")
			if _, ok := metaProperties[key]; !ok {
				metaProperties[key] = map[string]string{}
			}
			metaProperties[key][m.Property] = strings.TrimSpace(m.Text)
		}
	}

	// With several titles, EPUB 3 marks the main one through a refining meta.
	title := ""
	if len(pkg.Metadata.Title) > 0 {
		title = pkg.Metadata.Title[0].Text
		for _, t := range pkg.Metadata.Title {
			if t.ID != "" && metaProperties[t.ID]["title-type"] == "main" {
				title = t.Text
				break
			}
		}
	}

	authors := []string{}
	for _, creator := range pkg.Metadata.Creator {
		role := creator.Role
		if role == "" && creator.ID != "" {
			role = metaProperties[creator.ID]["role"]
		}
		name := strings.TrimSpace(creator.Text)
		if name != "" && (role == "" || role == "aut") {
			authors = append(authors, name)
		}
	}

	date := ""
	if len(pkg.Metadata.Date) > 0 {
		date = strings.TrimSpace(pkg.Metadata.Date[0])
	}

	ids := make([]mediafile.ParsedIdentifier, 0, len(pkg.Metadata.Identifier))
	for _, id := range pkg.Metadata.Identifier {
		value := strings.TrimSpace(id.Text)
		if value == "" {
			continue
		}
		scheme := id.Scheme
		if scheme == "" && id.ID != "" {
			scheme = metaProperties[id.ID]["identifier-type"]
		}
		parsed := mediafile.ParsedIdentifier{
			Type:  string(identifiers.DetectType(value, scheme)),
			Value: value,
		}
		if parsed.Type != string(identifiers.TypeUnknown) {
			parsed.Value = identifiers.NormalizeISBN(value)
		}
		ids = append(ids, parsed)
	}

	mediaTypes := map[string]string{}
	hrefs := map[string]string{}
	for _, item := range pkg.Manifest.Item {
		mediaTypes[item.ID] = item.MediaType
		hrefs[item.ID] = basePath + item.Href
	}

	var contentFiles []string
	seen := map[string]bool{}
	addContent := func(id string) {
		switch mediaTypes[id] {
		case "application/xhtml+xml", "text/html":
		default:
			return
		}
		if !seen[id] {
			seen[id] = true
			contentFiles = append(contentFiles, hrefs[id])
		}
	}
	for _, ref := range pkg.Spine.Itemref {
		addContent(ref.Idref)
	}
	// Documents outside the spine (copyright pages are a common case) still count.
	for _, item := range pkg.Manifest.Item {
		addContent(item.ID)
	}

	return &OPF{
		Title:        strings.TrimSpace(title),
		Authors:      authors,
		Date:         date,
		Publisher:    strings.TrimSpace(pkg.Metadata.Publisher),
		Identifiers:  ids,
		ContentFiles: contentFiles,
	}, nil
}
