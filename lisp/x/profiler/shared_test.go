package profiler_test

// tracedSource is evaluated by the annotator tests.  Only add-it and
// add-again carry trace labels.
const tracedSource = `(defun add-it (x y) "@trace{ Add It }" (+ x y))
(defun add-again (x y) "Adds again. @trace{Add It Again}" (add-it x y))
(defun plain (x) (add-again x 1))
(plain 2)`
