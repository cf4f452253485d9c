package serializer

// RuntimeScript drives the saved carousels: it shows one photo per
// container, keeps the dots in step and handles dot clicks and touch swipes.
// It carries no editing code.
const RuntimeScript = `
(function () {
  var ACTIVE = 'rgba(255, 215, 0, 0.9)';
  var INACTIVE = 'rgba(255, 255, 255, 0.3)';
  var THRESHOLD = 50;

  function init(container) {
    var photos = Array.prototype.slice.call(container.querySelectorAll('.photo-block'));
    var total = photos.length;
    if (total <= 1) return;

    var current = 0;
    var indicators = container.parentElement ? container.parentElement.querySelector('.swipe-indicators') : null;

    function show(index) {
      if (index < 0 || index >= total) return;
      photos.forEach(function (photo, i) {
        photo.style.display = i === index ? 'block' : 'none';
      });
      current = index;
      container.dataset.currentIndex = String(index);
      if (!indicators) return;
      indicators.querySelectorAll('.swipe-dot').forEach(function (dot, i) {
        dot.style.background = i === index ? ACTIVE : INACTIVE;
      });
    }

    var startX = 0;
    var dragging = false;
    container.addEventListener('touchstart', function (e) {
      startX = e.touches[0].clientX;
      dragging = true;
    }, { passive: true });
    container.addEventListener('touchend', function (e) {
      if (!dragging) return;
      dragging = false;
      var diff = startX - e.changedTouches[0].clientX;
      if (diff > THRESHOLD && current < total - 1) {
        show(current + 1);
      } else if (diff < -THRESHOLD && current > 0) {
        show(current - 1);
      }
    });

    if (indicators) {
      indicators.querySelectorAll('.swipe-dot').forEach(function (dot, i) {
        dot.addEventListener('click', function () {
          if (i !== current) show(i);
        });
      });
    }

    show(0);
  }

  function start() {
    document.querySelectorAll('.photo-swipeable-container').forEach(init);
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', start);
  } else {
    start();
  }
})();
`
