package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// Json渲染
type JsonStatReportRender struct{}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]；外層維度與物件清單保持展開
	return forceReadableList(w, r)
}

// RenderFor 依格式名稱取得渲染器；未知格式回傳 nil
func RenderFor(format string) StatReportRender {
	switch format {
	case "json":
		return &JsonStatReportRender{}
	case "yaml", "yml":
		return &YAMLStatReportRender{}
	default:
		return nil
	}
}

type EstimatorRender interface {
	Write(w io.Writer, e *EstimatorPlayers) error
}

// EstimatorRenderFor 同 RenderFor
func EstimatorRenderFor(format string) EstimatorRender {
	switch format {
	case "json":
		return &JsonEstimatorRender{}
	case "yaml", "yml":
		return &YAMLEstimatorRender{}
	default:
		return nil
	}
}

// Json渲染
type JsonEstimatorRender struct{}

func (jr *JsonEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return json.NewEncoder(w).Encode(e)
}

// YAML渲染
type YAMLEstimatorRender struct{}

func (yr *YAMLEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return forceReadableList(w, e)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences 自頂向下調整 sequence node 的 style：
//   - 內部只有純量的 sequence（最內層一維）=> flow style: [...]
//   - 內部有子 sequence 或物件 => 保持預設 block（展開）
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		scalars := true
		for _, c := range n.Content {
			if c != nil && c.Kind != yaml.ScalarNode {
				scalars = false
			}
			styleReadableSequences(c)
		}
		if scalars {
			n.Style = yaml.FlowStyle
		}
	}
}
