package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridseq/grid"
)

func tracksWithLengths(rows int, lengths ...int) []*Track {
	var out []*Track
	for i, n := range lengths {
		out = append(out, NewTrack(i+1, GetInstrument("synth").Bind(), rows, n))
	}
	return out
}

func TestSyncPadsToMax(t *testing.T) {
	tracks := tracksWithLengths(4, 8, 24, 16)
	tl := NewTimeline(8)

	length, grew := tl.Sync(tracks)
	assert.False(t, grew)
	assert.Equal(t, 24, length)
	for _, tr := range tracks {
		assert.Equal(t, 24, tr.Cols())
	}
}

func TestSyncIdleDoesNotGrow(t *testing.T) {
	tracks := tracksWithLengths(4, 16, 16)
	var err error
	tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(1, 0, 7)
	require.NoError(t, err)

	tl := NewTimeline(16)
	for i := 0; i < 3; i++ {
		length, grew := tl.Sync(tracks)
		assert.False(t, grew)
		assert.Equal(t, 16, length)
	}
}

func TestSyncGrowsOnLastPiece(t *testing.T) {
	tracks := tracksWithLengths(4, 8, 8)
	var err error
	tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(3, 7, 7)
	require.NoError(t, err)

	tl := NewTimeline(8)
	length, grew := tl.Sync(tracks)
	assert.True(t, grew)
	assert.Equal(t, 16, length)
	assert.Equal(t, 16, tracks[0].Cols())
	assert.Equal(t, 16, tracks[1].Cols())

	// The new last piece is empty, so nothing more happens.
	length, grew = tl.Sync(tracks)
	assert.False(t, grew)
	assert.Equal(t, 16, length)
}

func TestSyncGrowsOncePerCall(t *testing.T) {
	tracks := tracksWithLengths(2, 16)
	var err error
	tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(0, 12, 15)
	require.NoError(t, err)

	tl := NewTimeline(16)
	length, _ := tl.Sync(tracks)
	assert.Equal(t, 24, length)

	tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(1, 20, 23)
	require.NoError(t, err)
	length, grew := tl.Sync(tracks)
	assert.True(t, grew)
	assert.Equal(t, 32, length)
	assert.Equal(t, 4, tl.Pieces())
}

func TestSyncSeesShortTrackActivityAfterPadding(t *testing.T) {
	// Track 1 has a note at column 7, track 2 is already 16 long. The last
	// piece of the shared length is 8..15, where nobody plays.
	tracks := tracksWithLengths(2, 8, 16)
	var err error
	tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(0, 7, 7)
	require.NoError(t, err)

	tl := NewTimeline(8)
	length, grew := tl.Sync(tracks)
	assert.False(t, grew)
	assert.Equal(t, 16, length)
	assert.Equal(t, grid.Start, tracks[0].Matrix.Cell(0, 7))
}

func TestSyncNeverShrinks(t *testing.T) {
	tl := NewTimeline(32)
	length, _ := tl.Sync(tracksWithLengths(2, 8))
	assert.Equal(t, 32, length)

	length, _ = tl.Sync(nil)
	assert.Equal(t, 32, length)
}

func TestSyncGrowsExactlyWhenLastPieceActive(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"first piece", 0, 7},
		{"last column of first piece", 7, 7},
		{"first column of last piece", 8, 8},
		{"run into last piece", 6, 9},
		{"last column", 15, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracks := tracksWithLengths(1, 16)
			var err error
			tracks[0].Matrix, err = tracks[0].Matrix.PaintRun(0, tc.start, tc.end)
			require.NoError(t, err)
			want := tracks[0].Matrix.LastPieceActive()

			_, grew := NewTimeline(16).Sync(tracks)
			assert.Equal(t, want, grew)
		})
	}
}
