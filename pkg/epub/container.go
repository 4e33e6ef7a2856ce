package epub

import (
	"encoding/xml"

	"emperror.dev/errors"
)

// ContainerPath is the required location of the container descriptor.
const ContainerPath = "META-INF/container.xml"

type containerXML struct {
	XMLName   xml.Name     `xml:"container"`
	Version   string       `xml:"version,attr"`
	RootFiles rootFilesXML `xml:"rootfiles"`
}

type rootFilesXML struct {
	RootFile []rootFileXML `xml:"rootfile"`
}

type rootFileXML struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// ParseContainer parses META-INF/container.xml bytes.
func ParseContainer(data []byte) (*Container, error) {
	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, errors.WithMessage(err, "parsing container.xml")
	}

	out := &Container{Version: c.Version}
	for _, rf := range c.RootFiles.RootFile {
		out.Rootfiles = append(out.Rootfiles, Rootfile{
			FullPath:  rf.FullPath,
			MediaType: rf.MediaType,
		})
	}
	return out, nil
}
