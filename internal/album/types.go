// Package album loads album lists and album details, and uploads new
// reference images, through the authorized transport.
package album

// Summary is one entry of the album list. FolderName is the stable identifier.
type Summary struct {
	FolderName string `json:"folder_name"`
	ImageURL   string `json:"image_url"`
}

// Detail is a generated album: stories and, index-aligned with them, the
// pictograms belonging to each story.
type Detail struct {
	ImageURL        string     `json:"image_url"`
	Stories         []string   `json:"story"`
	PictogramGroups [][]string `json:"pictograms"`
}

// normalize aligns PictogramGroups with Stories: every story gets a group,
// a story without pictograms gets an empty (non-nil) one, and groups with no
// story are dropped.
func (d Detail) normalize() Detail {
	if d.Stories == nil {
		d.Stories = []string{}
	}
	groups := make([][]string, len(d.Stories))
	for i := range groups {
		if i < len(d.PictogramGroups) && d.PictogramGroups[i] != nil {
			groups[i] = d.PictogramGroups[i]
		} else {
			groups[i] = []string{}
		}
	}
	d.PictogramGroups = groups
	return d
}

// uploadResponse is the body of a successful POST /albums.
type uploadResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

// Tracker keys.
const (
	keyList   = "list"
	keyUpload = "upload"
)

func albumKey(folder string) string {
	return "album:" + folder
}
