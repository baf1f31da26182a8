/*
 * Copyright 2024 The jtx Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package domtree

// HiddenAttr is the boolean marker attribute the "show" binding and
// every status-slot visibility rule toggle
// to hide/reveal an element while it stays connected to the tree.
const HiddenAttr = "hidden"

// Hide sets HiddenAttr as a boolean attribute.
func (e *Element) Hide() { e.SetBoolAttr(HiddenAttr) }

// Show removes HiddenAttr.
func (e *Element) Show() { e.RemoveAttr(HiddenAttr) }

// KeyAttr is the marker attribute the list engine stamps on every
// rendered item node to recover its identity for non-merge
// strategies.
const KeyAttr = "jtx-key"
