package animation

import (
	"fmt"
	"strings"
)

// SceneClass is the class name the generated Manim scene must use.
const SceneClass = "AnimationScene"

func buildPlanPrompt(query string, imageCount int) string {
	var b strings.Builder
	b.WriteString("You plan short educational animations built with the Manim Python library.\n\n")
	fmt.Fprintf(&b, "Topic to explain:\n%s\n\n", query)
	if imageCount > 0 {
		fmt.Fprintf(&b, "%d textbook figure(s) are attached. Base the visuals on them and do not invent unrelated ones.\n\n", imageCount)
	}
	b.WriteString("Describe the scene, not the code:\n")
	b.WriteString("1. A scene title.\n")
	b.WriteString("2. A short overview of the concept being taught.\n")
	b.WriteString("3. A numbered step-by-step breakdown naming the Manim objects (Text, MathTex, Square, NumberPlane, VGroup, ...) and animations (Write, FadeIn, Transform, ...) used in each step.\n")
	b.WriteString("4. The final frame and what the learner should remember.\n")
	b.WriteString("5. Notes for whoever turns the plan into code.\n\n")
	fmt.Fprintf(&b, "The scene class must be named %s, as in `class %s(Scene):`.\n", SceneClass, SceneClass)
	return b.String()
}

func buildCodePrompt(plan string) string {
	var b strings.Builder
	b.WriteString("Write a complete Manim Community Edition Python file implementing this scene plan.\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(plan))
	fmt.Fprintf(&b, "Start with `from manim import *` and define exactly one scene, `class %s(Scene):`.\n", SceneClass)
	b.WriteString("Return only the code in a single ```python fenced block.")
	return b.String()
}
