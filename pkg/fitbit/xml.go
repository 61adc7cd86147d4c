package fitbit

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// Attributed-node dialect: the older backend generation answers graph
// requests with an XML document of the shape
//
//	<settings>
//	  <data>
//	    <chart>
//	      <graphs>
//	        <graph>
//	          <value description="1,209 steps from 1:05pm to 1:10pm">1209.0</value>
//	          ...
//
// Nodes without a description attribute are chart decoration (axis
// markers, fill points) and carry no data.

type graphDocument struct {
	XMLName xml.Name    `xml:"settings"`
	Values  []graphNode `xml:"data>chart>graphs>graph>value"`
}

type graphNode struct {
	Description *string `xml:"description,attr"`
	Value       string  `xml:",chardata"`
}

// graphPoint is one parsed data point, timing still unresolved.
type graphPoint struct {
	Description string
	Value       string
}

func parseGraphXML(body []byte) ([]graphPoint, error) {
	var doc graphDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding graph XML")
	}
	var points []graphPoint
	for _, node := range doc.Values {
		if node.Description == nil {
			continue
		}
		points = append(points, graphPoint{
			Description: *node.Description,
			Value:       node.Value,
		})
	}
	return points, nil
}
