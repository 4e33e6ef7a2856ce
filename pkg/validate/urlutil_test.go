package validate

import "testing"

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		raw  string
		want urlKind
	}{
		{"chapter.xhtml", urlLocal},
		{"../images/cover.jpg", urlLocal},
		{"#frag", urlLocal},
		{"http://example.com/a.xhtml", urlRemote},
		{"HTTPS://example.com/a.xhtml", urlRemote},
		{"data:image/png;base64,AAAA", urlData},
		{"file:///tmp/a.xhtml", urlFile},
		{"has space.xhtml", urlMalformed},
		{"a<b.xhtml", urlMalformed},
		{"bad\turl", urlMalformed},
	}
	for _, tt := range tests {
		if got := classifyURL(tt.raw); got != tt.want {
			t.Errorf("classifyURL(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		raw        string
		path, frag string
	}{
		{"a.xhtml", "a.xhtml", ""},
		{"a.xhtml#sec1", "a.xhtml", "sec1"},
		{"#sec1", "", "sec1"},
		{"a.xhtml#", "a.xhtml", ""},
	}
	for _, tt := range tests {
		p, f := splitFragment(tt.raw)
		if p != tt.path || f != tt.frag {
			t.Errorf("splitFragment(%q) = (%q,%q), want (%q,%q)", tt.raw, p, f, tt.path, tt.frag)
		}
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		source, url string
		target      string
		absolute    bool
		leaked      bool
	}{
		{"EPUB/c1.xhtml", "c2.xhtml", "EPUB/c2.xhtml", false, false},
		{"EPUB/c1.xhtml", "../cover.jpg", "cover.jpg", false, false},
		{"EPUB/c1.xhtml", "../../escape.jpg", "../escape.jpg", false, true},
		{"EPUB/c1.xhtml", "/EPUB/c2.xhtml", "EPUB/c2.xhtml", true, false},
		{"EPUB/c1.xhtml", "img%20a.png", "EPUB/img a.png", false, false},
		{"c1.xhtml", "../out.jpg", "../out.jpg", false, true},
		{"EPUB/sub/c1.xhtml", "../c2.xhtml", "EPUB/c2.xhtml", false, false},
	}
	for _, tt := range tests {
		target, absolute, leaked := resolveReference(tt.source, tt.url)
		if target != tt.target || absolute != tt.absolute || leaked != tt.leaked {
			t.Errorf("resolveReference(%q, %q) = (%q,%v,%v), want (%q,%v,%v)",
				tt.source, tt.url, target, absolute, leaked, tt.target, tt.absolute, tt.leaked)
		}
	}
}

func TestDataURLMediaType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"data:image/png;base64,AAAA", "image/png"},
		{"data:text/css,body{}", "text/css"},
		{"data:;base64,AAAA", "text/plain"},
		{"data:,hello", "text/plain"},
		{"data:IMAGE/PNG,x", "image/png"},
	}
	for _, tt := range tests {
		if got := dataURLMediaType(tt.raw); got != tt.want {
			t.Errorf("dataURLMediaType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSpecialFragments(t *testing.T) {
	if !isSVGViewFragment("svgView(viewBox(0,0,100,100))") {
		t.Error("svgView fragment not recognized")
	}
	if !isSVGViewFragment("viewBox(0,0,100,100)") {
		t.Error("viewBox fragment not recognized")
	}
	if isSVGViewFragment("section1") {
		t.Error("plain id mistaken for view fragment")
	}
	if !isCFIFragment("epubcfi(/6/4!/4)") {
		t.Error("CFI fragment not recognized")
	}
	if isCFIFragment("cfi") {
		t.Error("plain id mistaken for CFI")
	}
}
