package devserver

import (
	"crypto/sha256"
	"encoding/binary"
	"net/url"
)

type story struct {
	Text  string
	Words []string
}

// storyBook is the fixed vocabulary stories are drawn from. The last entry
// has no pictograms on purpose: real albums can contain such stories.
var storyBook = []story{
	{"O gato bebe leite.", []string{"gato", "beber", "leite"}},
	{"A menina brinca com a bola.", []string{"menina", "brincar", "bola"}},
	{"O menino come maçã.", []string{"menino", "comer", "maçã"}},
	{"O cachorro dorme na casa.", []string{"cachorro", "dormir", "casa"}},
	{"A mãe lê um livro.", []string{"mãe", "ler", "livro"}},
	{"O sol brilha no céu.", []string{"sol", "brilhar", "céu"}},
	{"O pássaro voa sobre a árvore.", []string{"pássaro", "voar", "árvore"}},
	{"O pai dirige o carro.", []string{"pai", "dirigir", "carro"}},
	{"Fim.", nil},
}

// storiesPerAlbum is how many stories each upload produces.
const storiesPerAlbum = 3

// pickStories selects stories for an image. The same bytes always yield the
// same stories.
func pickStories(image []byte) []story {
	sum := sha256.Sum256(image)
	seed := binary.BigEndian.Uint64(sum[:8])

	picked := make([]story, 0, storiesPerAlbum)
	seen := make(map[int]bool)
	for len(picked) < storiesPerAlbum {
		i := int(seed % uint64(len(storyBook)))
		seed = seed/7 + 1
		if seen[i] {
			i = (i + 1) % len(storyBook)
			for seen[i] {
				i = (i + 1) % len(storyBook)
			}
		}
		seen[i] = true
		picked = append(picked, storyBook[i])
	}
	return picked
}

// pictogramURL is where the pictogram for word is served.
func pictogramURL(base, word string) string {
	return base + "/static/pictograms/" + url.PathEscape(word) + ".png"
}

// PixelPNG is a 1x1 transparent PNG. It is served for every pictogram and
// is a convenient valid image for uploads in tests.
var PixelPNG = []byte("\x89PNG\r\n\x1a\n" +
	"\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89" +
	"\x00\x00\x00\nIDATx\x9cc\x00\x01\x00\x00\x05\x00\x01\r\n-\xb4" +
	"\x00\x00\x00\x00IEND\xaeB`\x82")
