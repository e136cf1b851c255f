package selection

import (
	"board/internal/domain"
	"board/internal/geom"
)

// MinMarquee is the smallest marquee, in screen pixels, that selects anything.
const MinMarquee = 4.0

// Marquee returns the ids of elements whose bounds overlap the screen-space
// rectangle r, converted to desk space with the given view. ok is false when
// r is below MinMarquee on either axis; callers clear the selection then.
func Marquee(r geom.Rect, view domain.ViewState, els []domain.Element) (ids []string, ok bool) {
	if r.W < MinMarquee || r.H < MinMarquee {
		return nil, false
	}
	desk := geom.RectToDesk(r, view.Offset, view.Scale)
	for _, e := range els {
		if desk.Overlaps(e.Rect()) {
			ids = append(ids, e.ID)
		}
	}
	return ids, true
}
