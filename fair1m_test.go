package rscoco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fair1mLabel = `<?xml version="1.0" encoding="utf-8"?>
<annotation>
  <source>
    <filename>12.tif</filename>
    <origin>GF2/GF3</origin>
  </source>
  <research><version>1.0</version></research>
  <size>
    <width>1000</width>
    <height>800</height>
    <depth>3</depth>
  </size>
  <objects>
    <object>
      <coordinate>pixel</coordinate>
      <type>rectangle</type>
      <description>None</description>
      <possibleresult><name>Boeing737</name></possibleresult>
      <points>
        <point>10.000000,10.000000</point>
        <point>50.700000,10.000000</point>
        <point>50.700000,40.200000</point>
        <point>10.000000,40.200000</point>
        <point>10.000000,10.000000</point>
      </points>
    </object>
    <object>
      <coordinate>pixel</coordinate>
      <possibleresult><name>Spaceship</name></possibleresult>
      <points><point>1,1</point><point>5,5</point></points>
    </object>
    <object>
      <coordinate>geographic</coordinate>
      <possibleresult><name>Bridge</name></possibleresult>
      <points>
        <point>100,200</point>
        <point>oops</point>
        <point>120,260</point>
      </points>
    </object>
    <object>
      <coordinate>pixel</coordinate>
      <possibleresult><name>Van</name></possibleresult>
      <points><point>bad</point></points>
    </object>
  </objects>
</annotation>
`

func TestFromFAIR1M(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "12.xml", fair1mLabel)
	writeTestFile(t, dir, "7.xml", `<annotation><source><filename>7.tif</filename></source>
<size><width>20</width><height>20</height></size><objects></objects></annotation>`)
	writeTestFile(t, dir, "readme.txt", "ignored")

	res, err := FromFAIR1M(dir, quietOptions())
	require.NoError(t, err)
	ds := res.Dataset
	requireIntegrity(t, ds)

	assert.Equal(t, fair1mInfo, ds.Info)
	assert.Equal(t, []License{fair1mLicense}, ds.Licenses)
	assert.Equal(t, FAIR1MCategories, ds.Categories)

	require.Len(t, ds.Images, 2)
	assert.Equal(t, Image{ID: 12, Width: 1000, Height: 800, FileName: "12.tif", License: intPtr(1)},
		ds.Images[0])
	assert.Equal(t, 7, ds.Images[1].ID)

	require.Len(t, ds.Annotations, 2)
	plane := ds.Annotations[0]
	assert.Equal(t, 0, plane.ID)
	assert.Equal(t, 12, plane.ImageID)
	assert.Equal(t, 20, plane.CategoryID)
	assert.Equal(t, BBox{10, 10, 40, 30}, plane.BBox)
	assert.Equal(t, 1200.0, plane.Area)
	assert.Equal(t, Segmentation{{10, 10}, {50, 10}, {50, 40}, {10, 40}, {10, 10}},
		plane.Segmentation)

	bridge := ds.Annotations[1]
	assert.Equal(t, 1, bridge.ID)
	assert.Equal(t, 37, bridge.CategoryID)
	assert.Equal(t, BBox{100, 200, 20, 60}, bridge.BBox)
	assert.Len(t, bridge.Segmentation, 2)

	assert.Equal(t, 1, res.Warnings.Count(UnknownCategory))
	assert.Equal(t, 1, res.Warnings.Count(UnexpectedCoordinates))
	assert.Equal(t, 2, res.Warnings.Count(SkippedPoint))
	assert.Equal(t, 1, res.Warnings.Count(EmptyObject))
	assert.Equal(t, ClipStats{}, res.Clip)
}

func TestFromFAIR1MClip(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "3.xml", `<annotation><source><filename>3.tif</filename></source>
<size><width>40</width><height>40</height></size>
<objects>
  <object><possibleresult><name>Van</name></possibleresult>
    <points><point>35,35</point><point>45,45</point></points></object>
  <object><possibleresult><name>Bus</name></possibleresult>
    <points><point>-50,-50</point><point>-45,-45</point></points></object>
</objects></annotation>`)

	opts := quietOptions()
	opts.Clip = true
	res, err := FromFAIR1M(dir, opts)
	require.NoError(t, err)
	requireIntegrity(t, res.Dataset)

	require.Len(t, res.Dataset.Annotations, 1)
	assert.Equal(t, BBox{35, 35, 5, 5}, res.Dataset.Annotations[0].BBox)
	assert.Equal(t, 25.0, res.Dataset.Annotations[0].Area)
	assert.Equal(t, ClipStats{Low: 1, High: 1, Removed: 1}, res.Clip)
}

func TestFromFAIR1MErrors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "1.xml", "<annotation><size>")
	_, err := FromFAIR1M(dir, quietOptions())
	assert.Error(t, err)

	dir = t.TempDir()
	writeTestFile(t, dir, "a.xml", "<annotation><source><filename>beach.tif</filename></source></annotation>")
	_, err = FromFAIR1M(dir, quietOptions())
	assert.ErrorIs(t, err, ErrNonNumericName)

	dir = t.TempDir()
	writeTestFile(t, dir, "a.xml", "<annotation><source><filename>1.tif</filename></source></annotation>")
	writeTestFile(t, dir, "b.xml", "<annotation><source><filename>0001.tif</filename></source></annotation>")
	_, err = FromFAIR1M(dir, quietOptions())
	assert.ErrorIs(t, err, ErrDuplicateImageID)

	_, err = FromFAIR1M(dir+"/missing", quietOptions())
	assert.Error(t, err)
}

func TestParseFAIR1MPoint(t *testing.T) {
	p, err := parseFAIR1MPoint(" 779.5,1005.25 ")
	require.NoError(t, err)
	assert.Equal(t, Point{779.5, 1005.25}, p)

	for _, s := range []string{"", "1", "1,2,3", "a,2", "1,b"} {
		_, err := parseFAIR1MPoint(s)
		assert.Error(t, err, s)
	}
}
