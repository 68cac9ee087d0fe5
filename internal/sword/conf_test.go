package sword

import (
	"strings"
	"testing"
)

const mhcConf = `[MHC]
DataPath=./modules/comments/zcom/mhc/
ModDrv=zCom
# compression block
CompressType=ZIP
BlockType=BOOK
Lang=en
Description=Matthew Henry's Complete Commentary on the Whole Bible
About=Matthew Henry's commentary on the whole Bible. \par Books with commentary: \par Genesis \par Exodus \par II Kings \par Colossians \par Laodiceans \par Revelation
DistributionLicense=Public Domain
TextSource=e-Sword
Category=Commentaries
Version=1.0
`

func parseConf(t *testing.T, data string) *ModuleConf {
	t.Helper()
	conf, err := ParseConf(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseConf() error = %v", err)
	}
	return conf
}

func TestParseConf(t *testing.T) {
	conf := parseConf(t, mhcConf)

	if conf.Module != "MHC" {
		t.Errorf("Module = %q, want %q", conf.Module, "MHC")
	}
	if conf.Description != "Matthew Henry's Complete Commentary on the Whole Bible" {
		t.Errorf("Description = %q", conf.Description)
	}
	if conf.ModDrv != "zCom" {
		t.Errorf("ModDrv = %q, want %q", conf.ModDrv, "zCom")
	}
	if conf.Lang != "en" {
		t.Errorf("Lang = %q, want %q", conf.Lang, "en")
	}
	if conf.License != "Public Domain" {
		t.Errorf("License = %q, want %q", conf.License, "Public Domain")
	}
	if conf.Source != "e-Sword" {
		t.Errorf("Source = %q, want %q", conf.Source, "e-Sword")
	}
	if conf.Category != "Commentaries" {
		t.Errorf("Category = %q, want %q", conf.Category, "Commentaries")
	}
	if got := conf.Properties["CompressType"]; got != "ZIP" {
		t.Errorf("Properties[CompressType] = %q, want %q", got, "ZIP")
	}
	if got := conf.Properties["Version"]; got != "1.0" {
		t.Errorf("Properties[Version] = %q, want %q", got, "1.0")
	}
}

func TestParseConfContinuations(t *testing.T) {
	conf := parseConf(t, `[Test]
About=line one \
line two \
# an interleaved comment
line three
Version=2.1
`)

	if conf.About != "line one line two line three" {
		t.Errorf("About = %q, want %q", conf.About, "line one line two line three")
	}
	if got := conf.Properties["Version"]; got != "2.1" {
		t.Errorf("Properties[Version] = %q, want %q", got, "2.1")
	}
}

func TestParseConfMissingHeader(t *testing.T) {
	conf := parseConf(t, "Description=No header at all\n")

	if conf.Module != "" {
		t.Errorf("Module = %q, want empty", conf.Module)
	}
	if conf.Description != "No header at all" {
		t.Errorf("Description = %q", conf.Description)
	}
}

func TestIsCommentary(t *testing.T) {
	tests := []struct {
		name string
		conf ModuleConf
		want bool
	}{
		{name: "zcom", conf: ModuleConf{ModDrv: "zCom"}, want: true},
		{name: "rawcom4", conf: ModuleConf{ModDrv: "RawCom4"}, want: true},
		{name: "bible text", conf: ModuleConf{ModDrv: "zText"}, want: false},
		{name: "category fallback", conf: ModuleConf{Category: "Commentaries"}, want: true},
		{name: "unmarked", conf: ModuleConf{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.IsCommentary(); got != tt.want {
				t.Errorf("IsCommentary() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooksWithCommentary(t *testing.T) {
	conf := parseConf(t, mhcConf)

	books := conf.BooksWithCommentary()
	want := []string{"Genesis", "Exodus", "2 Kings", "Colossians", "Revelation"}
	if len(books) != len(want) {
		t.Fatalf("len(books) = %d, want %d", len(books), len(want))
	}
	for i, name := range want {
		if books[i].Name != name {
			t.Errorf("books[%d] = %q, want %q", i, books[i].Name, name)
		}
	}
}

func TestBooksWithCommentaryAbsent(t *testing.T) {
	conf := &ModuleConf{About: `A commentary. \par Written long ago.`}

	if books := conf.BooksWithCommentary(); len(books) != 0 {
		t.Errorf("BooksWithCommentary() = %v, want none", books)
	}
}

func TestModuleConfMeta(t *testing.T) {
	conf := parseConf(t, mhcConf)

	meta := conf.Meta()
	if meta.Slug != "mhc" {
		t.Errorf("Slug = %q, want %q", meta.Slug, "mhc")
	}
	if meta.Name != "Matthew Henry's Complete Commentary on the Whole Bible" {
		t.Errorf("Name = %q", meta.Name)
	}
	if meta.Source != "SWORD: MHC" {
		t.Errorf("Source = %q, want %q", meta.Source, "SWORD: MHC")
	}
	if meta.License != "Public Domain" {
		t.Errorf("License = %q, want %q", meta.License, "Public Domain")
	}
	if meta.Language != "en" {
		t.Errorf("Language = %q, want %q", meta.Language, "en")
	}
	if !strings.HasPrefix(meta.Description, "Matthew Henry's commentary") {
		t.Errorf("Description = %q", meta.Description)
	}
}

func TestModuleConfMetaDefaults(t *testing.T) {
	conf := &ModuleConf{Module: "Barnes"}

	meta := conf.Meta()
	if meta.Slug != "barnes" {
		t.Errorf("Slug = %q, want %q", meta.Slug, "barnes")
	}
	if meta.Name != "Barnes" {
		t.Errorf("Name = %q, want %q", meta.Name, "Barnes")
	}
	if meta.License != "Unknown" {
		t.Errorf("License = %q, want %q", meta.License, "Unknown")
	}
	if meta.Language != "en" {
		t.Errorf("Language = %q, want %q", meta.Language, "en")
	}
}

func TestModuleConfMetaTruncatesAbout(t *testing.T) {
	conf := &ModuleConf{Module: "Long", About: strings.Repeat("я", 600)}

	meta := conf.Meta()
	if got := len([]rune(meta.Description)); got != 500 {
		t.Errorf("len(Description) = %d runes, want 500", got)
	}
}

func TestConfPath(t *testing.T) {
	got := ConfPath("/usr/share/sword", "MHC")
	want := "/usr/share/sword/mods.d/mhc.conf"
	if got != want {
		t.Errorf("ConfPath() = %q, want %q", got, want)
	}
}
